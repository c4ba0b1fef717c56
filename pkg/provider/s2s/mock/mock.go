// Package mock provides test doubles for the s2s package interfaces.
//
// Use Provider to verify that sessions are opened with the expected
// SessionConfig. Use Session to script inbound service events and inspect
// the audio chunks the relay transmitted.
//
// Example:
//
//	sess := mock.NewSession()
//	prov := &mock.Provider{Session: sess}
//	// ... run the code under test ...
//	sess.Emit(s2s.Event{Type: s2s.EventAudio, Audio: pcm})
//	sess.End()
package mock

import (
	"context"
	"sync"

	"github.com/awaaz-ai/awaaz/pkg/provider/s2s"
)

// Compile-time assertions that the mocks satisfy the s2s interfaces.
var _ s2s.Provider = (*Provider)(nil)
var _ s2s.SessionHandle = (*Session)(nil)

// SendAudioCall records a single invocation of Session.SendAudio.
type SendAudioCall struct {
	// Chunk is a copy of the PCM bytes passed to SendAudio.
	Chunk []byte

	// SampleRate is the rate the chunk was tagged with.
	SampleRate int
}

// Session is a mock implementation of s2s.SessionHandle. Create it with
// [NewSession]; the zero value is not usable.
type Session struct {
	mu sync.Mutex

	// SendErr, if non-nil, is returned from every SendAudio call.
	SendErr error

	sendCalls []SendAudioCall
	events    chan s2s.Event
	errVal    error
	closed    bool
	closeOnce sync.Once
	closeCh   chan struct{}
}

// NewSession creates a Session with a buffered event stream.
func NewSession() *Session {
	return &Session{
		events:  make(chan s2s.Event, 64),
		closeCh: make(chan struct{}),
	}
}

// SendAudio records the call and returns SendErr.
func (s *Session) SendAudio(chunk []byte, sampleRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	s.sendCalls = append(s.sendCalls, SendAudioCall{Chunk: cp, SampleRate: sampleRate})
	return s.SendErr
}

// Events returns the scripted event stream.
func (s *Session) Events() <-chan s2s.Event { return s.events }

// Err returns the error set via Fail, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errVal
}

// Close marks the session closed and closes the event stream. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.closeOnce.Do(func() {
		close(s.closeCh)
		close(s.events)
	})
	return nil
}

// Emit delivers one event to the consumer. Events emitted after the session
// ended are discarded.
func (s *Session) Emit(ev s2s.Event) {
	select {
	case <-s.closeCh:
	case s.events <- ev:
	}
}

// CompleteSetup emits the setup acknowledgment event.
func (s *Session) CompleteSetup() {
	s.Emit(s2s.Event{Type: s2s.EventSetupComplete})
}

// Fail records err as the session's terminal error and closes the event
// stream, simulating a mid-stream connection drop.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	if s.errVal == nil {
		s.errVal = err
	}
	s.mu.Unlock()
	s.closeOnce.Do(func() {
		close(s.closeCh)
		close(s.events)
	})
}

// End closes the event stream without an error, simulating a clean shutdown
// by the service.
func (s *Session) End() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
		close(s.events)
	})
}

// SendCalls returns a copy of all recorded SendAudio calls. Thread-safe.
func (s *Session) SendCalls() []SendAudioCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SendAudioCall, len(s.sendCalls))
	copy(out, s.sendCalls)
	return out
}

// Closed reports whether Close was called. Thread-safe.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ConnectCall records a single invocation of Provider.Connect.
type ConnectCall struct {
	// Cfg is the SessionConfig passed to Connect.
	Cfg s2s.SessionConfig
}

// Provider is a mock implementation of s2s.Provider.
type Provider struct {
	mu sync.Mutex

	// Session is the handle returned by Connect. If nil, Connect returns a
	// fresh [NewSession].
	Session s2s.SessionHandle

	// ConnectErr, if non-nil, is returned as the error from Connect.
	ConnectErr error

	// Caps is returned from Capabilities.
	Caps s2s.Capabilities

	connectCalls []ConnectCall
}

// Connect records the call and returns Session, ConnectErr.
func (p *Provider) Connect(_ context.Context, cfg s2s.SessionConfig) (s2s.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connectCalls = append(p.connectCalls, ConnectCall{Cfg: cfg})
	if p.ConnectErr != nil {
		return nil, p.ConnectErr
	}
	if p.Session != nil {
		return p.Session, nil
	}
	return NewSession(), nil
}

// Capabilities returns Caps.
func (p *Provider) Capabilities() s2s.Capabilities { return p.Caps }

// ConnectCalls returns a copy of all recorded Connect calls. Thread-safe.
func (p *Provider) ConnectCalls() []ConnectCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ConnectCall, len(p.connectCalls))
	copy(out, p.connectCalls)
	return out
}
