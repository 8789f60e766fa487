package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/pinger-simulator/core"
	"github.com/signalsfoundry/pinger-simulator/model"
	"github.com/signalsfoundry/pinger-simulator/timectrl"
)

func testServer(t *testing.T) (*Server, *core.SimulationEngine) {
	t.Helper()

	motion := &core.StaticMotionModel{Fixed: core.Pose{Orientation: core.IdentityQuat()}}
	engine := core.NewSimulationEngine("usv1", motion, nil, nil)

	p, err := core.NewPinger(model.PingerDefinition{
		ID:           "pinger1",
		FrameID:      "usv1/pinger",
		UpdateRateHz: 1,
		Position:     model.Position{X: 3, Y: 4, Z: 0},
	})
	if err != nil {
		t.Fatalf("NewPinger: %v", err)
	}
	engine.AddPinger(p)

	clock := timectrl.NewTimeController(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), time.Second, timectrl.Accelerated)
	return NewServer(engine, clock, nil, nil), engine
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandler_Health(t *testing.T) {
	srv, _ := testServer(t)
	rr := doRequest(t, srv.Handler(), http.MethodGet, "/healthz", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
	if body["vehicle"] != "usv1" {
		t.Errorf("vehicle field = %q, want usv1", body["vehicle"])
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Errorf("missing X-Request-Id header")
	}
}

func TestHandler_RequestIDPassthrough(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-Id"); got != "req-42" {
		t.Fatalf("X-Request-Id = %q, want req-42", got)
	}
}

func TestHandler_ListPingers(t *testing.T) {
	srv, _ := testServer(t)
	rr := doRequest(t, srv.Handler(), http.MethodGet, "/api/pingers", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var pingers []pingerPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &pingers); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(pingers) != 1 {
		t.Fatalf("got %d pingers, want 1", len(pingers))
	}
	if pingers[0].ID != "pinger1" || pingers[0].FrameID != "usv1/pinger" {
		t.Errorf("payload = %+v", pingers[0])
	}
	if pingers[0].UpdatePeriodMs != 1000 {
		t.Errorf("update_period_ms = %v, want 1000", pingers[0].UpdatePeriodMs)
	}
}

func TestHandler_GetPinger(t *testing.T) {
	srv, _ := testServer(t)

	rr := doRequest(t, srv.Handler(), http.MethodGet, "/api/pingers/pinger1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var payload pingerPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.BeaconPosition.X != 3 || payload.BeaconPosition.Y != 4 {
		t.Errorf("beacon position = %+v", payload.BeaconPosition)
	}

	rr = doRequest(t, srv.Handler(), http.MethodGet, "/api/pingers/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status for unknown pinger = %d, want 404", rr.Code)
	}
}

func TestHandler_SetPosition(t *testing.T) {
	srv, engine := testServer(t)

	rr := doRequest(t, srv.Handler(), http.MethodPost, "/api/pingers/pinger1/position", `{"x": 10, "y": -5, "z": -2}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rr.Code, rr.Body.String())
	}

	p, _ := engine.Pinger("pinger1")
	if got := p.Position(); got != (core.Vec3{X: 10, Y: -5, Z: -2}) {
		t.Fatalf("beacon position = %+v after update", got)
	}
}

func TestHandler_SetPositionErrors(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "unknown pinger", path: "/api/pingers/missing/position", body: `{"x": 1}`, want: http.StatusNotFound},
		{name: "not json", path: "/api/pingers/pinger1/position", body: `{`, want: http.StatusBadRequest},
		{name: "unknown field", path: "/api/pingers/pinger1/position", body: `{"x": 1, "w": 2}`, want: http.StatusBadRequest},
		{name: "non-finite component", path: "/api/pingers/pinger1/position", body: `{"x": 1e999}`, want: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, h, http.MethodPost, tc.path, tc.body)
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
		})
	}
}
