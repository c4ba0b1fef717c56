package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/awaaz-ai/awaaz/internal/observe"
)

// routes assembles the root handler. The WebSocket endpoint is mounted
// outside the observability middleware: the middleware's response wrapper
// does not implement http.Hijacker, which the WebSocket upgrade needs.
func (s *Server) routes() http.Handler {
	api := http.NewServeMux()
	s.health.Register(api)
	api.Handle("GET /metrics", promhttp.Handler())
	api.HandleFunc("GET /api/voices", s.handleVoices)
	api.HandleFunc("GET /api/modes", s.handleModes)
	api.HandleFunc("GET /api/sessions", s.handleSessions)
	if dir := s.cfg.Server.StaticDir; dir != "" {
		api.Handle("GET /", http.FileServer(http.Dir(dir)))
	}

	root := http.NewServeMux()
	root.HandleFunc("GET /ws/{client_id}", s.handleWS)
	root.Handle("/", observe.Middleware(s.met)(api))
	return root
}

// voiceInfo is one entry of the /api/voices response.
type voiceInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default,omitempty"`
}

// handleVoices lists the voices the configured provider offers.
func (s *Server) handleVoices(w http.ResponseWriter, _ *http.Request) {
	caps := s.provider.Capabilities()
	voices := make([]voiceInfo, 0, len(caps.Voices))
	for _, v := range caps.Voices {
		voices = append(voices, voiceInfo{
			ID:      v.ID,
			Name:    v.Name,
			Default: v.ID == caps.DefaultVoice,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"voices": voices})
}

// modeInfo is one entry of the /api/modes response. System prompts stay
// server-side.
type modeInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
	Voice       string `json:"voice,omitempty"`
}

// handleModes lists the configured conversation modes.
func (s *Server) handleModes(w http.ResponseWriter, _ *http.Request) {
	modes := make([]modeInfo, 0, len(s.cfg.Modes))
	for _, m := range s.cfg.Modes {
		modes = append(modes, modeInfo{
			Name:        m.Name,
			DisplayName: m.DisplayName,
			Description: m.Description,
			Icon:        m.Icon,
			Color:       m.Color,
			Voice:       m.Voice,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"modes": modes})
}

// sessionInfo is one entry of the /api/sessions response.
type sessionInfo struct {
	ID        string `json:"id"`
	Voice     string `json:"voice"`
	StartedAt string `json:"started_at"`
}

// handleSessions lists active relay sessions.
func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	active := s.registry.List()
	sessions := make([]sessionInfo, 0, len(active))
	for _, info := range active {
		sessions = append(sessions, sessionInfo{
			ID:        info.ID,
			Voice:     info.Voice,
			StartedAt: info.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// writeJSON encodes v as JSON with the given status code. On encoding
// failure it falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}
