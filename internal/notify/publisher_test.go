package notify_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/notify"
	"todo/internal/observe"
	"todo/internal/service"
)

type message struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mu   sync.Mutex
	msgs []message
	err  error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, message{subject: subject, data: data})
	return nil
}

func (c *fakeConn) messages() []message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]message(nil), c.msgs...)
}

// source stands in for the repository cache stream.
type source struct {
	reg *observe.Registry[[]service.Todo]
}

func (s source) Subscribe(fn func([]service.Todo)) func() { return s.reg.Subscribe(fn) }

func TestPublish(t *testing.T) {
	conn := &fakeConn{}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := notify.New(conn, "todo.changes", nil, notify.WithClock(clockwork.NewFakeClockAt(now)))

	require.NoError(t, p.Publish([]service.Todo{{ID: "a", Title: "A"}}))

	msgs := conn.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "todo.changes", msgs[0].subject)

	var snap notify.Snapshot
	require.NoError(t, json.Unmarshal(msgs[0].data, &snap))
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, []service.Todo{{ID: "a", Title: "A"}}, snap.Todos)
	assert.True(t, now.Equal(snap.Timestamp))
}

func TestPublish_EmptyListIsArray(t *testing.T) {
	conn := &fakeConn{}
	p := notify.New(conn, "s", nil)

	require.NoError(t, p.Publish(nil))

	assert.Contains(t, string(conn.messages()[0].data), `"todos":[]`)
}

func TestPublish_ConnError(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	p := notify.New(conn, "s", nil)

	assert.Error(t, p.Publish(nil))
}

func TestAttach(t *testing.T) {
	conn := &fakeConn{}
	src := source{reg: observe.New[[]service.Todo]()}
	p := notify.New(conn, "s", nil)

	detach := p.Attach(src)
	src.reg.Emit([]service.Todo{{ID: "a"}})
	src.reg.Emit([]service.Todo{{ID: "a"}, {ID: "b"}})
	detach()
	src.reg.Emit(nil)

	msgs := conn.messages()
	require.Len(t, msgs, 2)
	var last notify.Snapshot
	require.NoError(t, json.Unmarshal(msgs[1].data, &last))
	assert.Equal(t, 2, last.Count)
}
