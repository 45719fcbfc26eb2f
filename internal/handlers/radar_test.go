package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bugbridge"
	"bugbridge/internal/repository"
	"bugbridge/internal/service"
)

func addAuth(req *http.Request) {
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
}

func TestRadarHandlers_Inspect(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	insp := &mockInspection{report: bugbridge.ArrayReport{
		Label:  "lalal",
		Length: 3,
		Report: "shape: (3,)\nmax: 3.0\nmin: 1.0\nmean: 2.0",
	}}
	s := &service.Service{
		Authorization: auth,
		Inspection:    insp,
	}
	r := newTestRouter(s)

	// POST inspect requires auth → 401 without header
	body := bytes.NewBufferString(`{"values":[1,2,3],"label":"lalal"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/radar/inspect", body)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	// With auth → 200 and report body
	body = bytes.NewBufferString(`{"values":[1,2,3],"label":"lalal"}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/radar/inspect", body)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("inspect status=%d, body=%s", w.Code, w.Body.String())
	}
	var report bugbridge.ArrayReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if report.Label != "lalal" || report.Length != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if insp.calls != 1 {
		t.Fatalf("expected Inspect called once, got %d", insp.calls)
	}
	if len(insp.lastParams.Values) != 3 || insp.lastParams.Values[0] != 1 {
		t.Fatalf("params not passed through: %+v", insp.lastParams)
	}

	// Missing values → 400 before the service is touched
	body = bytes.NewBufferString(`{"label":"lalal"}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/radar/inspect", body)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing values, got %d", w.Code)
	}
	if insp.calls != 1 {
		t.Fatalf("service must not be called on bad body")
	}
}

func TestRadarHandlers_Calibrate(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	cal := &mockCalibration{run: bugbridge.RunRecord{
		ID:     "run-1",
		Kind:   bugbridge.KindCalibrate,
		Status: bugbridge.StatusSucceeded,
	}}
	s := &service.Service{
		Authorization: auth,
		Calibration:   cal,
	}
	r := newTestRouter(s)

	body := bytes.NewBufferString(`{"timestamp":"201307150230","dtype":"iris","station":"xam","data_hours":6}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/radar/calibrate", body)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("calibrate status=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Status string              `json:"status"`
		Run    bugbridge.RunRecord `json:"run"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != statusCompleted {
		t.Fatalf("expected status %q, got %q", statusCompleted, resp.Status)
	}
	if resp.Run.ID != "run-1" {
		t.Fatalf("run missing in response: %+v", resp.Run)
	}
	if cal.lastParams.Timestamp != "201307150230" || cal.lastParams.DataType != "iris" ||
		cal.lastParams.Station != "xam" || cal.lastParams.DataHours != 6 {
		t.Fatalf("params not passed through: %+v", cal.lastParams)
	}
	if cal.lastParams.Debug || cal.lastParams.Clear || cal.lastParams.Plot {
		t.Fatalf("flags must default to false: %+v", cal.lastParams)
	}
}

func TestRadarHandlers_Calibrate_ValidationVsExternalFailure(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	// No run ID → validation failure → 400
	cal := &mockCalibration{err: errors.New("unsupported dtype \"bogus\"")}
	s := &service.Service{Authorization: auth, Calibration: cal}
	r := newTestRouter(s)

	body := bytes.NewBufferString(`{"timestamp":"201307150230","dtype":"bogus","station":"xam"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/radar/calibrate", body)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation failure, got %d body=%s", w.Code, w.Body.String())
	}

	// Recorded run present → external failure → 500
	cal.run = bugbridge.RunRecord{ID: "run-2", Status: bugbridge.StatusFailed}
	cal.err = errors.New("external call failed: exit status 1: FileNotFoundError")
	body = bytes.NewBufferString(`{"timestamp":"201307150230","dtype":"iris","station":"xam"}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/radar/calibrate", body)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for external failure, got %d", w.Code)
	}
	var errResp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &errResp)
	if errResp["detail"] == "" {
		t.Fatalf("expected underlying error surfaced in detail, body=%s", w.Body.String())
	}
}

func TestRadarHandlers_Track(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	tr := &mockTracking{run: bugbridge.RunRecord{
		ID:     "run-3",
		Kind:   bugbridge.KindTrack,
		Status: bugbridge.StatusSucceeded,
	}}
	s := &service.Service{Authorization: auth, Tracking: tr}
	r := newTestRouter(s)

	body := bytes.NewBufferString(`{"timestamp":"201307150230","dtype":"iris","station":"xam","data_hours":0,"range_km":100}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/radar/track", body)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("track status=%d, body=%s", w.Code, w.Body.String())
	}
	if tr.calls != 1 {
		t.Fatalf("expected Track called once, got %d", tr.calls)
	}
	if tr.lastParams.DataHours != 0 || tr.lastParams.RangeKm != 100 {
		t.Fatalf("params not passed through: %+v", tr.lastParams)
	}
}

func TestRunHandlers_ListAndGet(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	started := time.Date(2013, 7, 15, 2, 30, 0, 0, time.UTC)
	rl := &mockRunLog{
		runs: []bugbridge.RunRecord{
			{ID: "a", Kind: bugbridge.KindTrack, Status: bugbridge.StatusSucceeded, StartedAt: started},
		},
		run:    bugbridge.RunRecord{ID: "a", Kind: bugbridge.KindTrack, Status: bugbridge.StatusSucceeded, StartedAt: started},
		events: []bugbridge.RunEvent{{EventID: "e1", RunID: "a", Type: "STARTED"}},
	}
	s := &service.Service{Authorization: auth, RunLog: rl}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/?kind=TRACK&from=2013-07-01&to=2013-07-31", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}
	var listResp struct {
		Count int                   `json:"count"`
		Runs  []bugbridge.RunRecord `json:"runs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if listResp.Count != 1 || listResp.Runs[0].ID != "a" {
		t.Fatalf("unexpected list response: %+v", listResp)
	}
	if rl.lastFilter.Kind != "TRACK" {
		t.Fatalf("kind filter not passed: %+v", rl.lastFilter)
	}
	// date-only 'to' becomes end-of-day inclusive
	if rl.lastFilter.To.Hour() != 23 {
		t.Fatalf("'to' not extended to end of day: %v", rl.lastFilter.To)
	}

	// bad 'from' → 400
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/runs/?from=notatime", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad from, got %d", w.Code)
	}

	// GET one run
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/runs/a", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status=%d, body=%s", w.Code, w.Body.String())
	}
	var getResp struct {
		Run    bugbridge.RunRecord `json:"run"`
		Events []bugbridge.RunEvent
	}
	if err := json.Unmarshal(w.Body.Bytes(), &getResp); err != nil {
		t.Fatalf("unmarshal get: %v", err)
	}
	if getResp.Run.ID != "a" || len(getResp.Events) != 1 {
		t.Fatalf("unexpected get response: %+v", getResp)
	}
}

func TestRunHandlers_GetNotFound(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	rl := &mockRunLog{getErr: repository.ErrRunNotFound}
	s := &service.Service{Authorization: auth, RunLog: rl}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/nope", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s := &service.Service{}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
}
