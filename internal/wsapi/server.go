package wsapi

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/asrgw/gateway/internal/config"
	"github.com/asrgw/gateway/pkg/asr"
	"github.com/asrgw/gateway/pkg/audio"
	"github.com/asrgw/gateway/pkg/task"
)

// Server upgrades GET /ws/v1/asr connections and runs one Session per
// socket, grounded on the teacher's WebSocketRealtimeServer (auth check,
// per-IP session limiting, then upgrade-and-pump).
type Server struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *asr.Registry
	upgrader websocket.Upgrader

	mu         sync.Mutex
	ipSessions map[string]int
}

// NewServer builds a Server bound to the given engine registry and config.
func NewServer(cfg *config.Config, log *slog.Logger, registry *asr.Registry) *Server {
	return &Server{
		cfg:      cfg,
		log:      log.With("component", "wsapi.server"),
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		ipSessions: make(map[string]int),
	}
}

// ServeHTTP handles GET /ws/v1/asr.
func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !checkAuth(r, srv.cfg.AppToken) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	clientIP := clientIP(r)
	if srv.cfg.MaxSessionsPerIP > 0 {
		srv.mu.Lock()
		count := srv.ipSessions[clientIP]
		srv.mu.Unlock()
		if count >= srv.cfg.MaxSessionsPerIP {
			http.Error(w, "too many sessions from this IP", http.StatusTooManyRequests)
			return
		}
	}

	conn, err := srv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		srv.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	taskID := task.NewID()
	gate := audio.NearfieldGate{Enabled: srv.cfg.ASREnableNearfieldFilter, Threshold: srv.cfg.ASRNearfieldRMSThreshold}
	session := NewSession(r.Context(), conn, taskID, srv.registry, gate, srv.log)

	srv.registerIP(clientIP)
	defer srv.unregisterIP(clientIP)

	session.Run()
}

// checkAuth mirrors internal/httpapi's bearer-token check; kept local to
// avoid an import cycle between the two API packages.
func checkAuth(r *http.Request, appToken string) bool {
	if appToken == "" {
		return true
	}
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	return strings.TrimPrefix(header, "Bearer ") == appToken
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return strings.Split(r.RemoteAddr, ":")[0]
}

func (srv *Server) registerIP(ip string) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.ipSessions[ip]++
}

func (srv *Server) unregisterIP(ip string) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.ipSessions[ip]--
	if srv.ipSessions[ip] <= 0 {
		delete(srv.ipSessions, ip)
	}
}
