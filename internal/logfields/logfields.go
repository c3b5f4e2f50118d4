// Package logfields holds canonical slog keys so records stay greppable.
package logfields

import (
	"log/slog"
	"time"
)

const (
	KeyTodoID     = "todo_id"
	KeyAction     = "action"
	KeyOp         = "op"
	KeyBackend    = "backend"
	KeyCount      = "count"
	KeyErrorKind  = "error_kind"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

func TodoID(id string) slog.Attr      { return slog.String(KeyTodoID, id) }
func Action(name string) slog.Attr    { return slog.String(KeyAction, name) }
func Op(name string) slog.Attr        { return slog.String(KeyOp, name) }
func Backend(name string) slog.Attr   { return slog.String(KeyBackend, name) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func ErrorKind(kind string) slog.Attr { return slog.String(KeyErrorKind, kind) }

func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d)/float64(time.Millisecond))
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
