package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/mgijax/wts/closure"
	"github.com/mgijax/wts/config"
	"github.com/mgijax/wts/database"
	"github.com/mgijax/wts/graph"
	"github.com/mgijax/wts/service"
	"github.com/mgijax/wts/web/middleware"
)

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	svc, err := service.NewDependencyService(graph.NewMemory(), database.NewMemoryStore(), service.Options{
		BatchSize:          100,
		CacheSize:          64,
		RebuildConcurrency: 1,
		RelationshipTypes:  []closure.RelationshipType{1},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDependencyService() error = %v", err)
	}
	s := NewServer(svc, zap.NewNop(), cfg)
	t.Cleanup(s.limiter.Stop)
	return s
}

func defaultConfig() *config.Config {
	return &config.Config{
		DependsOnType:   1,
		WritesPerMinute: 0,
		RebuildsPerHour: 0,
		RateLimitBurst:  20,
	}
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode %q: %v", w.Body.String(), err)
	}
}

func createRecords(t *testing.T, s *Server, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if w := do(t, s, http.MethodPost, "/records", map[string]string{"title": "record"}); w.Code != http.StatusCreated {
			t.Fatalf("POST /records = %d: %s", w.Code, w.Body.String())
		}
	}
}

func TestDependencyRoutes(t *testing.T) {
	s := newTestServer(t, defaultConfig())
	createRecords(t, s, 4)

	w := do(t, s, http.MethodPut, "/records/1/dependencies", map[string]any{"list": "TR 2, (TR 3)"})
	if w.Code != http.StatusOK {
		t.Fatalf("PUT dependencies = %d: %s", w.Code, w.Body.String())
	}
	var changes struct {
		Added         []struct{ From, To int64 } `json:"added"`
		ComponentSize int                        `json:"component_size"`
	}
	decode(t, w, &changes)
	if len(changes.Added) != 5 || changes.ComponentSize != 3 {
		t.Errorf("PUT dependencies changes = %+v, want 5 arcs over 3 nodes", changes)
	}

	if w := do(t, s, http.MethodPost, "/records/TR3/dependencies/4", nil); w.Code != http.StatusOK {
		t.Fatalf("POST dependency = %d: %s", w.Code, w.Body.String())
	}

	var deps struct {
		DependsOn []int64 `json:"depends_on"`
	}
	w = do(t, s, http.MethodGet, "/records/1/dependencies?transitive=true", nil)
	decode(t, w, &deps)
	if want := []int64{2, 3, 4}; !reflect.DeepEqual(deps.DependsOn, want) {
		t.Errorf("transitive dependencies = %v, want %v", deps.DependsOn, want)
	}

	var dependents struct {
		DependedOnBy []int64 `json:"depended_on_by"`
	}
	w = do(t, s, http.MethodGet, "/records/4/dependents", nil)
	decode(t, w, &dependents)
	if want := []int64{1, 3}; !reflect.DeepEqual(dependents.DependedOnBy, want) {
		t.Errorf("dependents = %v, want %v", dependents.DependedOnBy, want)
	}

	var tree struct {
		Lines []string `json:"lines"`
	}
	w = do(t, s, http.MethodGet, "/records/1/tree", nil)
	decode(t, w, &tree)
	wantTree := []string{"1", "+-------2", "+-------3", "|       +-------4"}
	if !reflect.DeepEqual(tree.Lines, wantTree) {
		t.Errorf("tree = %v, want %v", tree.Lines, wantTree)
	}

	if w := do(t, s, http.MethodDelete, "/records/3/dependencies/4", nil); w.Code != http.StatusOK {
		t.Fatalf("DELETE dependency = %d: %s", w.Code, w.Body.String())
	}
	if w := do(t, s, http.MethodDelete, "/records/3/dependencies/4", nil); w.Code != http.StatusNotFound {
		t.Errorf("second DELETE dependency = %d, want 404", w.Code)
	}
}

func TestCycleIsRejected(t *testing.T) {
	s := newTestServer(t, defaultConfig())
	createRecords(t, s, 3)
	do(t, s, http.MethodPut, "/records/1/dependencies", map[string]any{"depends_on": []int64{2}})
	do(t, s, http.MethodPut, "/records/2/dependencies", map[string]any{"depends_on": []int64{3}})

	w := do(t, s, http.MethodPut, "/records/3/dependencies", map[string]any{"depends_on": []int64{1}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("PUT cyclic dependencies = %d, want 422: %s", w.Code, w.Body.String())
	}
	var body struct {
		Violations []struct{ Origin, Target int64 } `json:"violations"`
	}
	decode(t, w, &body)
	if len(body.Violations) != 1 || body.Violations[0].Target != 1 {
		t.Errorf("violations = %+v, want target 1", body.Violations)
	}

	var check struct {
		Safe       bool    `json:"safe"`
		WouldCycle []int64 `json:"would_cycle"`
	}
	w = do(t, s, http.MethodGet, "/records/3/check?targets=1,2", nil)
	decode(t, w, &check)
	if check.Safe || !reflect.DeepEqual(check.WouldCycle, []int64{1, 2}) {
		t.Errorf("check = %+v, want unsafe for 1 and 2", check)
	}
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t, defaultConfig())
	createRecords(t, s, 2)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "bad_record_id", method: http.MethodGet, path: "/records/abc/dependencies", want: http.StatusBadRequest},
		{name: "bad_type", method: http.MethodGet, path: "/records/1/dependents?type=x", want: http.StatusBadRequest},
		{name: "self_dependency", method: http.MethodPost, path: "/records/1/dependencies/1", want: http.StatusBadRequest},
		{name: "unknown_target", method: http.MethodPost, path: "/records/1/dependencies/99", want: http.StatusNotFound},
		{name: "bad_list", method: http.MethodPut, path: "/records/1/dependencies", body: map[string]any{"list": "1, x"}, want: http.StatusBadRequest},
		{name: "empty_title", method: http.MethodPost, path: "/records", body: map[string]any{"title": ""}, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(t, s, tt.method, tt.path, tt.body); w.Code != tt.want {
				t.Errorf("%s %s = %d, want %d: %s", tt.method, tt.path, w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, defaultConfig())

	var status struct {
		Closures []map[string]any `json:"closures"`
	}
	w := do(t, s, http.MethodGet, "/admin/closure/status", nil)
	decode(t, w, &status)
	if len(status.Closures) != 1 || status.Closures[0]["status"] != "never synced" {
		t.Errorf("status before any sync = %v", status.Closures)
	}

	createRecords(t, s, 2)
	do(t, s, http.MethodPut, "/records/1/dependencies", map[string]any{"depends_on": []int64{2}})

	w = do(t, s, http.MethodPost, "/admin/closure/rebuild", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("POST rebuild = %d: %s", w.Code, w.Body.String())
	}
	var rebuilt struct {
		Rebuilt []struct {
			Components int `json:"components"`
			Added      int `json:"added"`
		} `json:"rebuilt"`
	}
	decode(t, w, &rebuilt)
	if len(rebuilt.Rebuilt) != 1 || rebuilt.Rebuilt[0].Components != 1 || rebuilt.Rebuilt[0].Added != 0 {
		t.Errorf("rebuild = %+v", rebuilt.Rebuilt)
	}

	w = do(t, s, http.MethodGet, "/admin/closure/status", nil)
	decode(t, w, &status)
	if status.Closures[0]["status"] != "synced" {
		t.Errorf("status after rebuild = %v", status.Closures)
	}

	if w := do(t, s, http.MethodGet, "/metrics", nil); w.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/healthz", nil); w.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d", w.Code)
	}
}

func TestWriteRateLimit(t *testing.T) {
	cfg := defaultConfig()
	cfg.WritesPerMinute = 1
	cfg.RateLimitBurst = 2
	s := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		if w := do(t, s, http.MethodPost, "/records", map[string]string{"title": "r"}); w.Code != http.StatusCreated {
			t.Fatalf("write %d = %d, want 201", i, w.Code)
		}
	}
	w := do(t, s, http.MethodPost, "/records", map[string]string{"title": "r"})
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("third write = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// reads are never throttled
	if w := do(t, s, http.MethodGet, "/records/1/dependencies", nil); w.Code != http.StatusOK {
		t.Errorf("read after limit = %d, want 200", w.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, defaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(middleware.RequestIDHeader, "not-a-uuid")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	got := w.Header().Get(middleware.RequestIDHeader)
	if got == "" || got == "not-a-uuid" {
		t.Errorf("%s = %q, want a fresh uuid", middleware.RequestIDHeader, got)
	}

	const id = "0b7e5d62-3d8f-4f7a-9a11-4c6a3b1f0e2d"
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(middleware.RequestIDHeader, id)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if got := w.Header().Get(middleware.RequestIDHeader); got != id {
		t.Errorf("%s = %q, want %q echoed", middleware.RequestIDHeader, got, id)
	}
}
