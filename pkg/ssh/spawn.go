package ssh

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hostbridge/hostbridge/pkg/host/protocol"
)

// Terminal event names. The first of either tears the process stream down.
const (
	EventError = "error"
	EventClose = "close"
)

// eventBuffer is the capacity of a Process event channel. A full buffer
// applies backpressure to host callback dispatch.
const eventBuffer = 32

// Event is one named event delivered by the host for a spawned command.
type Event struct {
	Name string
	Data json.RawMessage
}

// Process is the event-emitting handle returned by Spawn. Events arrive on
// Events until the host delivers "error" or "close", after which the
// channel is closed and the underlying callback command is unregistered.
// Teardown happens exactly once; no events are delivered past it.
type Process struct {
	events chan Event
	done   chan struct{}

	mu         sync.Mutex
	closed     bool
	sends      sync.WaitGroup
	unregister func()
}

// Events returns the stream of host-delivered events. The channel closes
// on the first "error" or "close" event, or when Detach is called.
func (p *Process) Events() <-chan Event {
	return p.events
}

// Detach abandons the stream early: the callback command is unregistered
// and the event channel is closed. Detach after teardown is a no-op, and
// it must not wait on the consumer, even with a full event buffer.
func (p *Process) Detach() {
	p.teardown()
}

// deliver hands one host event to the consumer. The send happens outside
// the mutex so teardown never waits on a full buffer; done aborts a send
// blocked past teardown.
func (p *Process) deliver(ev Event) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.sends.Add(1)
	p.mu.Unlock()

	select {
	case p.events <- ev:
	case <-p.done:
	}
	p.sends.Done()

	if ev.Name == EventError || ev.Name == EventClose {
		p.teardown()
	}
}

func (p *Process) teardown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	// Release any deliver blocked on a full buffer, then close the event
	// channel only once no sender can touch it.
	close(p.done)
	p.sends.Wait()
	close(p.events)
	p.unregister()
}

// Spawn starts a command over the open connection and returns a handle
// whose events the host delivers through a callback command registered for
// this call. The callback name is unique per call.
func (s *Session) Spawn(ctx context.Context, command string) (*Process, error) {
	id, err := s.connectionID()
	if err != nil {
		return nil, err
	}

	callback := spawnCallbackName()
	p := &Process{
		events:     make(chan Event, eventBuffer),
		done:       make(chan struct{}),
		unregister: func() { s.inv.UnregisterCallback(callback) },
	}

	s.inv.RegisterCallback(callback, func(ctx context.Context, params json.RawMessage) (any, error) {
		name, data, err := protocol.CallbackEvent(params)
		if err != nil {
			return nil, err
		}
		p.deliver(Event{Name: name, Data: data})
		return nil, nil
	})

	if err := s.inv.Invoke(ctx, protocol.MethodSSHSpawn, []any{id, command, callback}, nil); err != nil {
		s.inv.UnregisterCallback(callback)
		return nil, err
	}

	return p, nil
}

// spawnCallbackName builds a callback command name unique to one Spawn
// call, so concurrent spawns never collide.
func spawnCallbackName() string {
	return fmt.Sprintf("ssh.spawn.%d.%s", time.Now().UnixNano(), uuid.NewString()[:8])
}
