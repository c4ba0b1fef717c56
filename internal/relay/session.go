// Package relay implements the bidirectional audio relay between a browser
// client and a speech-to-speech AI service. A [Session] runs two concurrent
// pumps: the client pump reads microphone frames, applies turn-taking
// admission and the speech gate, resamples, and forwards to the service; the
// service pump fans service events (audio, text, turn boundaries) back to the
// client and keeps the shared [TurnState] current.
package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/awaaz-ai/awaaz/internal/observe"
	"github.com/awaaz-ai/awaaz/pkg/audio"
	"github.com/awaaz-ai/awaaz/pkg/gate"
	"github.com/awaaz-ai/awaaz/pkg/provider/s2s"
)

const (
	// DefaultClientRate is assumed for client audio frames that do not
	// declare a sample rate. Browsers commonly capture at 44.1 kHz.
	DefaultClientRate = 44100

	// defaultSetupTimeout bounds how long the client pump waits for the
	// service setup acknowledgement before forwarding audio optimistically.
	defaultSetupTimeout = 10 * time.Second

	// statusWriteTimeout bounds best-effort status and error writes during
	// teardown, when the session context may already be cancelled.
	statusWriteTimeout = 2 * time.Second
)

// ClientChannel is the transport to the browser client. Implementations wrap
// a WebSocket connection; tests substitute in-memory fakes.
type ClientChannel interface {
	// Read blocks until the next client message is available and returns
	// its raw payload.
	Read(ctx context.Context) ([]byte, error)

	// Write sends one raw message to the client.
	Write(ctx context.Context, data []byte) error
}

// Config carries the resolved per-session settings. The WebSocket handler
// builds it from the client's initial config message and the server defaults.
type Config struct {
	// ID identifies the session in logs and the registry.
	ID string

	// Voice is the provider voice ID synthesising the assistant.
	Voice string

	// AllowInterruptions permits client audio through while the assistant
	// is speaking.
	AllowInterruptions bool

	// GateEnabled runs every client frame through the speech gate. When
	// false, frames pass to the service unexamined.
	GateEnabled bool

	// ServiceRate is the PCM rate in Hz the AI service expects on its
	// input. Client frames are resampled to this rate before forwarding.
	ServiceRate int
}

// Option is a functional option for configuring a [Session].
type Option func(*Session)

// WithGate installs the speech gate used to classify client frames. Without
// a gate, GateEnabled has no effect and all frames are forwarded.
func WithGate(g *gate.Gate) Option {
	return func(s *Session) {
		s.gate = g
	}
}

// WithLogger sets the structured logger. Defaults to [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Session) {
		s.met = m
	}
}

// WithSetupTimeout overrides how long the client pump waits for the service
// setup acknowledgement. Useful in tests to keep suite execution fast.
func WithSetupTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.setupTimeout = d
	}
}

// Session relays audio between one client and one AI service session. Create
// with [NewSession] and drive with [Session.Run]; a Session is single-use.
type Session struct {
	ch  ClientChannel
	svc s2s.SessionHandle
	cfg Config

	gate         *gate.Gate
	turns        *TurnState
	log          *slog.Logger
	met          *observe.Metrics
	setupTimeout time.Duration

	setupAcked chan struct{}
	ackOnce    sync.Once
	closeOnce  sync.Once
}

// NewSession wires a client channel to an open AI service session.
func NewSession(ch ClientChannel, svc s2s.SessionHandle, cfg Config, opts ...Option) *Session {
	s := &Session{
		ch:           ch,
		svc:          svc,
		cfg:          cfg,
		turns:        NewTurnState(cfg.AllowInterruptions),
		setupTimeout: defaultSetupTimeout,
		setupAcked:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.met == nil {
		s.met = observe.DefaultMetrics()
	}
	s.log = s.log.With("session_id", cfg.ID)
	return s
}

// Turns exposes the session's turn-taking state, primarily for inspection in
// tests and the registry.
func (s *Session) Turns() *TurnState {
	return s.turns
}

// Run pumps audio in both directions until the client disconnects, the
// service stream ends, or ctx is cancelled. It always tears the session down
// before returning: the turn state is forced idle and the service handle is
// closed. A clean client disconnect returns nil.
func (s *Session) Run(ctx context.Context) error {
	s.met.ActiveSessions.Add(ctx, 1)
	start := time.Now()
	defer func() {
		s.met.ActiveSessions.Add(context.WithoutCancel(ctx), -1)
		s.met.SessionDuration.Record(context.WithoutCancel(ctx), time.Since(start).Seconds())
	}()
	defer s.teardown()

	if err := s.sendStatus(ctx, StatusConnected, ""); err != nil {
		return fmt.Errorf("announce connection: %w", err)
	}

	// An errgroup only cancels its context on a non-nil error, but a pump
	// returning nil (clean client disconnect, clean service stream end)
	// must still release its counterpart.
	eg, egCtx := errgroup.WithContext(ctx)
	pumpCtx, cancelPumps := context.WithCancel(egCtx)
	defer cancelPumps()
	eg.Go(func() error {
		defer cancelPumps()
		return s.servicePump(pumpCtx)
	})
	eg.Go(func() error {
		defer cancelPumps()
		return s.clientPump(pumpCtx)
	})

	err := eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error("session ended with error", "error", err)
		s.sendErrorBestEffort(err)
		return err
	}
	s.log.Info("session ended", "duration", time.Since(start))
	return nil
}

// teardown forces the turn state idle and closes the service session. Safe to
// call more than once.
func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		s.turns.Reset()
		if err := s.svc.Close(); err != nil {
			s.log.Warn("closing service session", "error", err)
		}
	})
}

// ── client → service ──────────────────────────────────────────────────────

// clientPump reads client messages, gates and resamples audio frames, and
// forwards them to the service. Frame-local failures are logged and the frame
// skipped; channel failures end the session.
func (s *Session) clientPump(ctx context.Context) error {
	if err := s.awaitSetup(ctx); err != nil {
		return err
	}

	for {
		raw, err := s.ch.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			// Client disconnects are the normal way sessions end.
			s.log.Debug("client read ended", "error", err)
			return nil
		}

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.log.Warn("malformed client message", "error", err)
			s.met.RecordRelayError(ctx, "decode")
			continue
		}
		if msg.Type != TypeAudio {
			s.log.Debug("ignoring client message", "type", msg.Type)
			continue
		}

		frame, err := s.decodeFrame(msg)
		if err != nil {
			s.log.Warn("bad audio frame", "error", err)
			s.met.RecordRelayError(ctx, "decode")
			continue
		}

		if !s.turns.ShouldProcess() {
			s.met.FramesDropped.Add(ctx, 1)
			continue
		}

		payload := frame.Data
		if s.gate != nil && s.cfg.GateEnabled {
			gateStart := time.Now()
			decision := s.gate.Decide(frame)
			s.met.GateDuration.Record(ctx, time.Since(gateStart).Seconds())
			if !decision.Speech {
				// Keep the service's sense of time continuous: replace
				// the frame with silence of the same byte length rather
				// than dropping it.
				payload = audio.Silence(len(frame.Data))
				s.met.FramesMuted.Add(ctx, 1)
			}
		}

		out, err := audio.ResamplePCM16(payload, frame.SampleRate, s.cfg.ServiceRate)
		if err != nil {
			s.log.Warn("resampling client frame", "error", err, "from", frame.SampleRate, "to", s.cfg.ServiceRate)
			s.met.RecordRelayError(ctx, "resample")
			continue
		}

		if err := s.svc.SendAudio(out, s.cfg.ServiceRate); err != nil {
			return fmt.Errorf("forwarding audio to service: %w", err)
		}
		s.met.FramesForwarded.Add(ctx, 1)
	}
}

// awaitSetup blocks until the service acknowledges its setup handshake, the
// timeout elapses, or ctx is cancelled. A timeout is survivable: the client
// is warned and forwarding proceeds optimistically.
func (s *Session) awaitSetup(ctx context.Context) error {
	timer := time.NewTimer(s.setupTimeout)
	defer timer.Stop()

	select {
	case <-s.setupAcked:
		return nil
	case <-timer.C:
		s.log.Warn("service setup acknowledgement timed out, forwarding anyway",
			"timeout", s.setupTimeout)
		if err := s.sendStatus(ctx, StatusSetupTimeout, "AI service setup is slow; audio may be delayed"); err != nil {
			return fmt.Errorf("reporting setup timeout: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// decodeFrame turns an inbound audio message into a PCM frame, defaulting the
// sample rate when the client omits it.
func (s *Session) decodeFrame(msg InboundMessage) (audio.Frame, error) {
	pcm, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		return audio.Frame{}, fmt.Errorf("decoding audio payload: %w", err)
	}
	if len(pcm) == 0 {
		return audio.Frame{}, errors.New("empty audio payload")
	}
	rate := msg.SampleRate
	if rate == 0 {
		rate = DefaultClientRate
	}
	return audio.Frame{Data: pcm, SampleRate: rate, Origin: audio.OriginClient}, nil
}

// ── service → client ──────────────────────────────────────────────────────

// servicePump consumes the service event stream and fans it to the client.
// The first audio event of each response marks the assistant's turn as
// started; turnComplete events mark it finished and tell the client the
// session is listening again.
func (s *Session) servicePump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.svc.Events():
			if !ok {
				if err := s.svc.Err(); err != nil {
					return fmt.Errorf("service stream: %w", err)
				}
				return nil
			}
			if err := s.handleServiceEvent(ctx, ev); err != nil {
				return err
			}
		}
	}
}

func (s *Session) handleServiceEvent(ctx context.Context, ev s2s.Event) error {
	switch ev.Type {
	case s2s.EventSetupComplete:
		s.ackOnce.Do(func() { close(s.setupAcked) })
		s.log.Debug("service setup acknowledged")
		return nil

	case s2s.EventAudio:
		if s.turns.BeginTurn() {
			s.log.Debug("assistant turn started")
		}
		return s.sendJSON(ctx, OutboundMessage{
			Type:     TypeAudio,
			Data:     base64.StdEncoding.EncodeToString(ev.Audio),
			MIMEType: ev.MIMEType,
		})

	case s2s.EventText:
		return s.sendJSON(ctx, OutboundMessage{Type: TypeText, Text: ev.Text})

	case s2s.EventTurnComplete:
		s.turns.EndTurn()
		s.log.Debug("assistant turn complete")
		return s.sendStatus(ctx, StatusListening, "")

	default:
		s.log.Warn("unknown service event", "type", ev.Type)
		return nil
	}
}

// ── outbound helpers ──────────────────────────────────────────────────────

func (s *Session) sendJSON(ctx context.Context, msg OutboundMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding %s message: %w", msg.Type, err)
	}
	if err := s.ch.Write(ctx, data); err != nil {
		return fmt.Errorf("writing %s message: %w", msg.Type, err)
	}
	return nil
}

func (s *Session) sendStatus(ctx context.Context, status, detail string) error {
	return s.sendJSON(ctx, OutboundMessage{Type: TypeStatus, Status: status, Text: detail})
}

// sendErrorBestEffort tries to tell the client why the session died. The
// session context is usually already cancelled by the time this runs, so it
// writes under its own short deadline and ignores failures.
func (s *Session) sendErrorBestEffort(cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancel()
	_ = s.sendJSON(ctx, OutboundMessage{Type: TypeError, Text: cause.Error()})
}
