// Package api provides the HTTP API for observing the village.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/engine"
	"github.com/talgya/villagesim/internal/persistence"
	"github.com/talgya/villagesim/internal/world"
)

const (
	maxStreamConns = 8
	streamCatchUp  = 50
	maxEventLimit  = 500
)

// Server serves the village state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional; enables history queries and snapshots
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// PathLimiter throttles path planning per client. Nil uses 120 per minute.
	PathLimiter *RateLimiter

	streamConns atomic.Int32
	upgrader    websocket.Upgrader
	httpServer  *http.Server
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	if s.PathLimiter == nil {
		s.PathLimiter = NewRateLimiter(120, time.Minute)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/agent/", s.handleAgentRoutes)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/path", RateLimitMiddleware(s.PathLimiter, s.handlePath))
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/provision", s.adminOnly(s.handleProvision))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.Handler()}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly guards POST requests. GETs pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no VILLAGE_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Status()
	resp := map[string]any{
		"name":     "villagesim",
		"tick":     st.Tick,
		"sim_time": st.SimTime,
		"day":      st.Day,
		"elapsed":  st.Elapsed,
		"fixtures": st.Fixtures,
		"events":   st.Events,
		"stats":    st.Stats,
	}
	if s.Eng != nil {
		resp["speed"] = s.Eng.Speed()
		resp["running"] = s.Eng.Running()
	}
	writeJSON(w, resp)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	views := s.Sim.AgentViews()
	if occ := r.URL.Query().Get("occupation"); occ != "" {
		filtered := views[:0]
		for _, v := range views {
			if v.Occupation == occ {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}
	writeJSON(w, views)
}

// handleAgentRoutes serves GET /api/v1/agent/:id and POST /api/v1/agent/:id/home.
func (s *Server) handleAgentRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/agent/"), "/")
	parts := strings.Split(rest, "/")
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		v, ok := s.Sim.AgentView(agents.AgentID(id))
		if !ok {
			http.Error(w, "agent not found", http.StatusNotFound)
			return
		}
		writeJSON(w, v)
	case len(parts) == 2 && parts[1] == "home" && r.Method == http.MethodPost:
		s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
			desc, err := s.Sim.SendHome(agents.AgentID(id))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, map[string]string{"result": desc})
		})(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// handleEvents returns recent events, oldest first. With ?agent=id and a
// database the query reaches past the in-memory ring.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 50
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxEventLimit)
	}

	if v := q.Get("agent"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid agent id", http.StatusBadRequest)
			return
		}
		writeJSON(w, s.agentEvents(agents.AgentID(id), limit))
		return
	}
	writeJSON(w, s.Sim.Events.Recent(limit))
}

func (s *Server) agentEvents(id agents.AgentID, limit int) []engine.Event {
	if s.DB != nil {
		events, err := s.DB.AgentEvents(id, limit)
		if err == nil {
			// Stored newest first.
			for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
				events[i], events[j] = events[j], events[i]
			}
			return mergeEvents(events, s.Sim.Events.Recent(0), id, limit)
		}
		slog.Error("agent events query failed", "agent", id, "error", err)
	}
	return mergeEvents(nil, s.Sim.Events.Recent(0), id, limit)
}

// mergeEvents appends live events about id not already stored and keeps
// the newest limit.
func mergeEvents(stored, live []engine.Event, id agents.AgentID, limit int) []engine.Event {
	seen := make(map[string]bool, len(stored))
	for _, e := range stored {
		seen[e.ID.String()] = true
	}
	out := stored
	for _, e := range live {
		if e.Agent == id && !seen[e.ID.String()] {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	if out == nil {
		out = []engine.Event{}
	}
	return out
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Status().Stats)
}

// handlePath plans a route: GET /api/v1/path?from=x,y&to=x,y.
func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	from, err := parseCell(r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "invalid from: "+err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseCell(r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "invalid to: "+err.Error(), http.StatusBadRequest)
		return
	}

	path, ok := s.Sim.FindPath(from, to)
	if !ok {
		path = []world.Cell{}
	}
	writeJSON(w, map[string]any{"found": ok, "path": path})
}

func parseCell(v string) (world.Cell, error) {
	xs, ys, ok := strings.Cut(v, ",")
	if !ok {
		return world.Cell{}, fmt.Errorf("want x,y")
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return world.Cell{}, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return world.Cell{}, err
	}
	return world.Cell{X: x, Y: y}, nil
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleProvision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Item     string `json:"item"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	desc, err := s.Sim.ProvisionStall(req.Item, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"result": desc})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "no database configured", http.StatusServiceUnavailable)
		return
	}
	if err := s.DB.SaveWorldState(s.Sim); err != nil {
		slog.Error("manual snapshot failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"saved": true, "tick": s.Sim.Status().Tick})
}

// handleStream upgrades to a websocket and pushes events as JSON text
// frames: the recent backlog first, then live ones.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.streamConns.Add(1) > maxStreamConns {
		s.streamConns.Add(-1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer s.streamConns.Add(-1)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Subscribe before the backlog so nothing falls between the two.
	subID, ch := s.Sim.Events.Subscribe()
	defer s.Sim.Events.Unsubscribe(subID)

	backlog := s.Sim.Events.Recent(streamCatchUp)
	sent := make(map[string]bool, len(backlog))
	for _, e := range backlog {
		if err := writeFrame(conn, e); err != nil {
			return
		}
		sent[e.ID.String()] = true
	}
	slog.Info("stream client connected", "sub_id", subID)

	// Reader: detect close. Clients send nothing else.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			if sent[e.ID.String()] {
				delete(sent, e.ID.String())
				continue
			}
			if err := writeFrame(conn, e); err != nil {
				return
			}
		case <-heartbeat.C:
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-closed:
			slog.Info("stream client disconnected", "sub_id", subID)
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, e engine.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteJSON(e)
}

// writeError maps simulation errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, engine.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
