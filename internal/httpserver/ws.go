package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/awaaz-ai/awaaz/internal/relay"
	"github.com/awaaz-ai/awaaz/pkg/provider/s2s"
)

// handleWS upgrades the connection, performs the config handshake, opens an
// AI service session, and hands both ends to a relay session. Each client
// identifier may hold at most one live session.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("client_id")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The browser client may be served from a different origin than the
		// relay (e.g. a dev server).
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn("websocket accept failed", "client_id", clientID, "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "session aborted")

	// Each connection attempt gets its own ID so reconnects of one client
	// stay distinguishable in logs.
	log := s.log.With("client_id", clientID, "conn_id", uuid.NewString())

	ctx := r.Context()
	ch := &wsChannel{conn: conn}

	clientCfg, err := s.readConfig(ctx, ch)
	if err != nil {
		log.Warn("session config handshake failed", "error", err)
		writeError(ctx, ch, err.Error())
		conn.Close(websocket.StatusPolicyViolation, "config required")
		return
	}

	sessCfg, svcCfg := s.resolveSession(clientID, clientCfg)

	if err := writeStatus(ctx, ch, relay.StatusConfigReceived); err != nil {
		log.Warn("acknowledging config", "error", err)
		return
	}

	info := relay.SessionInfo{ID: clientID, Voice: sessCfg.Voice, StartedAt: time.Now()}
	if !s.registry.Add(info) {
		log.Warn("rejecting duplicate session for client")
		writeError(ctx, ch, "a session is already active for this client")
		conn.Close(websocket.StatusPolicyViolation, "duplicate client id")
		return
	}
	defer s.registry.Remove(clientID)

	var svc s2s.SessionHandle
	err = s.breaker.Execute(func() error {
		var connectErr error
		svc, connectErr = s.provider.Connect(ctx, svcCfg)
		return connectErr
	})
	if err != nil {
		log.Error("connecting to AI service", "error", err)
		writeError(ctx, ch, "AI service unavailable")
		conn.Close(websocket.StatusInternalError, "upstream connect failed")
		return
	}

	sess := relay.NewSession(ch, svc, sessCfg,
		relay.WithGate(s.gate),
		relay.WithLogger(s.log),
		relay.WithMetrics(s.met),
	)

	log.Info("relay session starting",
		"voice", sessCfg.Voice,
		"mode", clientCfg.Mode,
		"gate_enabled", sessCfg.GateEnabled,
		"allow_interruptions", sessCfg.AllowInterruptions,
	)

	if err := sess.Run(ctx); err != nil {
		conn.Close(websocket.StatusInternalError, "relay error")
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

// readConfig reads and validates the client's initial config message.
func (s *Server) readConfig(ctx context.Context, ch relay.ClientChannel) (*relay.ClientConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, configTimeout)
	defer cancel()

	raw, err := ch.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading config message: %w", err)
	}
	var msg relay.InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decoding config message: %w", err)
	}
	if msg.Type != relay.TypeConfig || msg.Config == nil {
		return nil, errors.New("first message must be a config message")
	}
	return msg.Config, nil
}

// resolveSession merges the client's config with server defaults and provider
// capabilities into the relay and service session configs.
func (s *Server) resolveSession(clientID string, clientCfg *relay.ClientConfig) (relay.Config, s2s.SessionConfig) {
	caps := s.provider.Capabilities()

	mode, ok := s.cfg.Mode(clientCfg.Mode)
	if !ok {
		if clientCfg.Mode != "" {
			s.log.Warn("unknown mode requested, using first configured mode", "mode", clientCfg.Mode)
		}
		if len(s.cfg.Modes) > 0 {
			mode = s.cfg.Modes[0]
		}
	}

	voice := clientCfg.Voice
	if voice == "" {
		voice = mode.Voice
	}
	if voice == "" {
		voice = s.cfg.Relay.DefaultVoice
	}
	if voice == "" {
		voice = caps.DefaultVoice
	}

	serviceRate := s.cfg.Relay.ServiceRate
	if serviceRate == 0 {
		serviceRate = caps.InputSampleRate
	}

	gateEnabled := s.cfg.GateEnabled() && s.gate != nil
	if clientCfg.GateEnabled != nil {
		gateEnabled = gateEnabled && *clientCfg.GateEnabled
	}

	sessCfg := relay.Config{
		ID:                 clientID,
		Voice:              voice,
		AllowInterruptions: clientCfg.AllowInterruptions || s.cfg.Relay.AllowInterruptions,
		GateEnabled:        gateEnabled,
		ServiceRate:        serviceRate,
	}
	svcCfg := s2s.SessionConfig{
		Voice:           s2s.VoiceProfile{ID: voice},
		Instructions:    mode.SystemPrompt,
		InputSampleRate: serviceRate,
	}
	return sessCfg, svcCfg
}

// wsChannel adapts a WebSocket connection to the relay.ClientChannel
// interface.
type wsChannel struct {
	conn *websocket.Conn
}

func (c *wsChannel) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	return data, err
}

func (c *wsChannel) Write(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func writeStatus(ctx context.Context, ch relay.ClientChannel, status string) error {
	data, err := json.Marshal(relay.OutboundMessage{Type: relay.TypeStatus, Status: status})
	if err != nil {
		return err
	}
	return ch.Write(ctx, data)
}

// writeError best-effort reports a handshake failure to the client.
func writeError(ctx context.Context, ch relay.ClientChannel, detail string) {
	data, err := json.Marshal(relay.OutboundMessage{Type: relay.TypeError, Text: detail})
	if err != nil {
		return
	}
	_ = ch.Write(ctx, data)
}
