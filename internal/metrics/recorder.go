// Package metrics records repository and container activity.
package metrics

import "time"

// Result labels for operation counters.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// Recorder receives observability hooks from the repository and state
// container. Implementations must tolerate concurrent calls.
type Recorder interface {
	// ObserveOp records one backend operation (fetch_all, fetch_one,
	// create, update, delete) and its outcome.
	ObserveOp(op string, d time.Duration, success bool)
	// IncCacheHit counts fetch_one calls served from the cache.
	IncCacheHit()
	// SetCacheSize reports the number of cached todos.
	SetCacheSize(n int)
	// IncErrorShown counts errors placed into State, by kind.
	IncErrorShown(kind string)
}

// NoopRecorder is the default when metrics are not configured.
type NoopRecorder struct{}

func (NoopRecorder) ObserveOp(string, time.Duration, bool) {}
func (NoopRecorder) IncCacheHit()                          {}
func (NoopRecorder) SetCacheSize(int)                      {}
func (NoopRecorder) IncErrorShown(string)                  {}
