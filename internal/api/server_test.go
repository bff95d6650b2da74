package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/catalog"
	"github.com/talgya/villagesim/internal/clock"
	"github.com/talgya/villagesim/internal/engine"
	"github.com/talgya/villagesim/internal/persistence"
	"github.com/talgya/villagesim/internal/world"
)

const testKey = "secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	g, items, v := world.Generate(world.SmallTestConfig())
	cat, err := catalog.Default()
	require.NoError(t, err)
	clk := clock.NewGame(clock.HourOf(8), 1, 1)
	ags := agents.NewSpawner(5).SpawnVillage(v, 2, g)
	sim := engine.NewSimulation(g, items, v, cat, clk, ags, engine.DefaultOptions())
	return &Server{Sim: sim, Eng: engine.NewEngine(clk), AdminKey: testKey}
}

func do(t *testing.T, h http.Handler, method, target, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if auth {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestStatusAndAgents(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/status", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[map[string]any](t, rec)
	assert.Equal(t, "Mon 08:00", status["sim_time"])
	assert.Equal(t, 1.0, status["speed"])

	rec = do(t, h, http.MethodGet, "/api/v1/agents", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]engine.AgentView](t, rec), 6)

	rec = do(t, h, http.MethodGet, "/api/v1/agents?occupation=farmer", "", false)
	farmers := decode[[]engine.AgentView](t, rec)
	require.Len(t, farmers, 2)
	for _, f := range farmers {
		assert.Equal(t, "farmer", f.Occupation)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/stats", "", false)
	assert.Equal(t, 6, decode[engine.SimStats](t, rec).Population)
}

func TestAgentRoutes(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/agent/2", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, agents.AgentID(2), decode[engine.AgentView](t, rec).ID)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/agent/77", "", false).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/agent/bob", "", false).Code)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/agent/2/home", "", false).Code)
	rec = do(t, h, http.MethodPost, "/api/v1/agent/2/home", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decode[map[string]string](t, rec)["result"], "home")
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/v1/agent/77/home", "", true).Code)
}

func TestAdminDisabledWithoutKey(t *testing.T) {
	s := newTestServer(t)
	s.AdminKey = ""
	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/speed", `{"speed":2}`, true)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSpeed(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":30}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30.0, s.Eng.Speed())

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":-1}`, true).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/speed", `nope`, true).Code)

	rec = do(t, h, http.MethodGet, "/api/v1/speed", "", false)
	assert.Equal(t, 30.0, decode[map[string]float64](t, rec)["speed"])
}

func TestProvisionAndEvents(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/provision", `{"item":"bread","quantity":3}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/v1/provision", `{"item":"gold","quantity":3}`, true).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/provision", `{"item":"bread","quantity":0}`, true).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/v1/provision", "", false).Code)

	rec = do(t, h, http.MethodGet, "/api/v1/events?limit=5", "", false)
	events := decode[[]engine.Event](t, rec)
	require.NotEmpty(t, events)
	assert.Equal(t, "admin", events[len(events)-1].Category)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/events?limit=x", "", false).Code)
}

func TestAgentEventsMergeStoredAndLive(t *testing.T) {
	s := newTestServer(t)
	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	defer db.Close()
	s.DB = db
	h := s.Handler()

	stored := s.Sim.EmitEvent("admin", 3, "stored one")
	require.NoError(t, db.SaveEvents([]engine.Event{stored}))
	s.Sim.EmitEvent("admin", 3, "live one")
	s.Sim.EmitEvent("admin", 4, "someone else")

	rec := do(t, h, http.MethodGet, "/api/v1/events?agent=3", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[[]engine.Event](t, rec)
	require.Len(t, events, 2)
	assert.Equal(t, "stored one", events[0].Description)
	assert.Equal(t, "live one", events[1].Description)

	rec = do(t, h, http.MethodPost, "/api/v1/snapshot", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, db.HasWorldState())
}

func TestPath(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	v := s.Sim.Village
	from, to := v.Houses[0].Inside, v.Plaza

	target := "/api/v1/path?from=" + cellParam(from) + "&to=" + cellParam(to)
	rec := do(t, h, http.MethodGet, target, "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Found bool         `json:"found"`
		Path  []world.Cell `json:"path"`
	}](t, rec)
	assert.True(t, resp.Found)
	assert.Equal(t, to, resp.Path[len(resp.Path)-1])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/path?from=1&to=2,2", "", false).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/path?from=1,1&to=a,2", "", false).Code)
}

func TestPathRateLimited(t *testing.T) {
	s := newTestServer(t)
	s.PathLimiter = NewRateLimiter(2, time.Minute)
	h := s.Handler()

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/path?from=1,1&to=1,1", "", false).Code)
	}
	rec := do(t, h, http.MethodGet, "/api/v1/path?from=1,1&to=1,1", "", false)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStreamSendsBacklogThenLive(t *testing.T) {
	s := newTestServer(t)
	s.Sim.EmitEvent("admin", 0, "before connect")
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() engine.Event {
		var e engine.Event
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&e))
		return e
	}
	assert.Equal(t, "before connect", read().Description)

	// The subscription is live once the backlog has arrived.
	require.Eventually(t, func() bool { return s.Sim.Events.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	s.Sim.EmitEvent("admin", 0, "after connect")
	assert.Equal(t, "after connect", read().Description)
}

func cellParam(c world.Cell) string {
	return fmt.Sprintf("%d,%d", c.X, c.Y)
}
