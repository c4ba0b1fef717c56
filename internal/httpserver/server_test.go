package httpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/awaaz-ai/awaaz/internal/config"
	"github.com/awaaz-ai/awaaz/internal/observe"
	"github.com/awaaz-ai/awaaz/internal/relay"
	"github.com/awaaz-ai/awaaz/pkg/provider/s2s"
	s2smock "github.com/awaaz-ai/awaaz/pkg/provider/s2s/mock"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Gemini.APIKey = "test-key"
	return cfg
}

func testCaps() s2s.Capabilities {
	return s2s.Capabilities{
		InputSampleRate: 24000,
		Voices: []s2s.VoiceProfile{
			{ID: "Puck", Name: "Puck"},
			{ID: "Aoede", Name: "Aoede"},
		},
		DefaultVoice: "Puck",
	}
}

func newTestServer(t *testing.T, prov s2s.Provider) *Server {
	t.Helper()
	met, err := observe.NewMetrics(sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return New(Deps{
		Cfg:      testConfig(),
		Provider: prov,
		Metrics:  met,
	})
}

func TestHandleVoices(t *testing.T) {
	s := newTestServer(t, &s2smock.Provider{Caps: testCaps()})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/voices")
	if err != nil {
		t.Fatalf("GET /api/voices: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	var body struct {
		Voices []voiceInfo `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Voices) != 2 {
		t.Fatalf("voices: got %d, want 2", len(body.Voices))
	}
	if !body.Voices[0].Default {
		t.Error("Puck should be flagged as default")
	}
	if body.Voices[1].Default {
		t.Error("Aoede should not be flagged as default")
	}
}

func TestHandleModes(t *testing.T) {
	s := newTestServer(t, &s2smock.Provider{Caps: testCaps()})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/modes")
	if err != nil {
		t.Fatalf("GET /api/modes: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Modes []modeInfo `json:"modes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	names := make([]string, 0, len(body.Modes))
	for _, m := range body.Modes {
		names = append(names, m.Name)
	}
	if len(names) != 2 || names[0] != "wellness" || names[1] != "study" {
		t.Errorf("modes: got %v, want [wellness study]", names)
	}
	for _, m := range body.Modes {
		if m.Description == "" {
			t.Errorf("mode %s: missing description", m.Name)
		}
		if m.Icon == "" || m.Color == "" {
			t.Errorf("mode %s: missing icon or color", m.Name)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, &s2smock.Provider{Caps: testCaps()})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: got %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &s2smock.Provider{Caps: testCaps()})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestStaticServing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>awaaz</html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	met, err := observe.NewMetrics(sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	cfg := testConfig()
	cfg.Server.StaticDir = dir
	s := New(Deps{Cfg: cfg, Provider: &s2smock.Provider{Caps: testCaps()}, Metrics: met})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
}

// ── WebSocket handshake and relay ─────────────────────────────────────────

func dialWS(t *testing.T, srv *httptest.Server, clientID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + clientID
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func writeWSJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readWSMessage(t *testing.T, conn *websocket.Conn) relay.OutboundMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg relay.OutboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return msg
}

func TestWS_ConfigHandshakeAndRelay(t *testing.T) {
	sess := s2smock.NewSession()
	prov := &s2smock.Provider{Session: sess, Caps: testCaps()}
	s := newTestServer(t, prov)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialWS(t, srv, "browser-1")
	writeWSJSON(t, conn, relay.InboundMessage{
		Type:   relay.TypeConfig,
		Config: &relay.ClientConfig{Mode: "study", Voice: "Aoede"},
	})

	if msg := readWSMessage(t, conn); msg.Status != relay.StatusConfigReceived {
		t.Fatalf("first status: got %q, want %q", msg.Status, relay.StatusConfigReceived)
	}
	if msg := readWSMessage(t, conn); msg.Status != relay.StatusConnected {
		t.Fatalf("second status: got %q, want %q", msg.Status, relay.StatusConnected)
	}

	// The provider must have been asked for the study persona and voice.
	calls := prov.ConnectCalls()
	if len(calls) != 1 {
		t.Fatalf("Connect calls: got %d, want 1", len(calls))
	}
	if got := calls[0].Cfg.Voice.ID; got != "Aoede" {
		t.Errorf("voice: got %q, want Aoede", got)
	}
	if !strings.Contains(calls[0].Cfg.Instructions, "study partner") {
		t.Errorf("instructions missing study persona: %q", calls[0].Cfg.Instructions)
	}
	if got := calls[0].Cfg.InputSampleRate; got != 24000 {
		t.Errorf("input rate: got %d, want 24000", got)
	}

	// Service audio must reach the client.
	sess.CompleteSetup()
	sess.Emit(s2s.Event{Type: s2s.EventAudio, Audio: []byte{1, 2, 3}, MIMEType: "audio/pcm;rate=24000"})

	for {
		msg := readWSMessage(t, conn)
		if msg.Type != relay.TypeAudio {
			continue
		}
		got, err := base64.StdEncoding.DecodeString(msg.Data)
		if err != nil {
			t.Fatalf("decode audio: %v", err)
		}
		if string(got) != "\x01\x02\x03" {
			t.Errorf("audio payload: got %v", got)
		}
		break
	}
}

func TestWS_RejectsNonConfigFirstMessage(t *testing.T) {
	s := newTestServer(t, &s2smock.Provider{Caps: testCaps()})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialWS(t, srv, "browser-1")
	writeWSJSON(t, conn, relay.InboundMessage{Type: relay.TypeAudio, Data: "AAAA"})

	if msg := readWSMessage(t, conn); msg.Type != relay.TypeError {
		t.Fatalf("got %+v, want error message", msg)
	}
}

func TestWS_ReportsUpstreamConnectFailure(t *testing.T) {
	prov := &s2smock.Provider{ConnectErr: context.DeadlineExceeded, Caps: testCaps()}
	s := newTestServer(t, prov)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialWS(t, srv, "browser-1")
	writeWSJSON(t, conn, relay.InboundMessage{
		Type:   relay.TypeConfig,
		Config: &relay.ClientConfig{},
	})

	if msg := readWSMessage(t, conn); msg.Status != relay.StatusConfigReceived {
		t.Fatalf("first status: got %q", msg.Status)
	}
	if msg := readWSMessage(t, conn); msg.Type != relay.TypeError {
		t.Fatalf("got %+v, want error message", msg)
	}
}

func TestWS_BreakerStopsUpstreamConnectsAfterRepeatedFailures(t *testing.T) {
	prov := &s2smock.Provider{ConnectErr: context.DeadlineExceeded, Caps: testCaps()}
	s := newTestServer(t, prov)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	// The breaker opens after five consecutive failures; later sessions are
	// rejected without dialling upstream.
	for i := 0; i < 7; i++ {
		conn := dialWS(t, srv, fmt.Sprintf("browser-%d", i))
		writeWSJSON(t, conn, relay.InboundMessage{
			Type:   relay.TypeConfig,
			Config: &relay.ClientConfig{},
		})
		readWSMessage(t, conn) // config_received
		if msg := readWSMessage(t, conn); msg.Type != relay.TypeError {
			t.Fatalf("attempt %d: got %+v, want error message", i, msg)
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}

	if got := len(prov.ConnectCalls()); got != 5 {
		t.Errorf("upstream connect attempts: got %d, want 5", got)
	}
}

func TestWS_RejectsSecondSessionForSameClient(t *testing.T) {
	sess := s2smock.NewSession()
	prov := &s2smock.Provider{Session: sess, Caps: testCaps()}
	s := newTestServer(t, prov)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	first := dialWS(t, srv, "browser-1")
	writeWSJSON(t, first, relay.InboundMessage{
		Type:   relay.TypeConfig,
		Config: &relay.ClientConfig{},
	})
	readWSMessage(t, first) // config_received
	readWSMessage(t, first) // connected

	second := dialWS(t, srv, "browser-1")
	writeWSJSON(t, second, relay.InboundMessage{
		Type:   relay.TypeConfig,
		Config: &relay.ClientConfig{},
	})
	readWSMessage(t, second) // config_received
	if msg := readWSMessage(t, second); msg.Type != relay.TypeError {
		t.Fatalf("got %+v, want error for duplicate client id", msg)
	}

	// The duplicate must never reach the upstream provider.
	if got := len(prov.ConnectCalls()); got != 1 {
		t.Errorf("upstream connect attempts: got %d, want 1", got)
	}
}

func TestResolveSession_Defaults(t *testing.T) {
	s := newTestServer(t, &s2smock.Provider{Caps: testCaps()})

	sessCfg, svcCfg := s.resolveSession("browser-1", &relay.ClientConfig{})
	if sessCfg.Voice != "Puck" {
		t.Errorf("voice: got %q, want provider default Puck", sessCfg.Voice)
	}
	if sessCfg.ServiceRate != 24000 {
		t.Errorf("service rate: got %d, want 24000", sessCfg.ServiceRate)
	}
	if sessCfg.AllowInterruptions {
		t.Error("interruptions should default off")
	}
	if !strings.Contains(svcCfg.Instructions, "journalling companion") {
		t.Errorf("instructions should default to the first mode: %q", svcCfg.Instructions)
	}
	if sessCfg.ID != "browser-1" {
		t.Errorf("session ID: got %q, want the client id", sessCfg.ID)
	}
}

func TestResolveSession_ClientGateOptOut(t *testing.T) {
	s := newTestServer(t, &s2smock.Provider{Caps: testCaps()})

	off := false
	sessCfg, _ := s.resolveSession("browser-1", &relay.ClientConfig{GateEnabled: &off})
	if sessCfg.GateEnabled {
		t.Error("client opted out of the gate but GateEnabled is true")
	}
}
