package handlers

import (
	"context"
	"net/http"

	"bugbridge"
	"bugbridge/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockInspection struct {
	report     bugbridge.ArrayReport
	err        error
	calls      int
	lastParams service.InspectParams
}

func (m *mockInspection) Inspect(ctx context.Context, p service.InspectParams) (bugbridge.ArrayReport, error) {
	m.calls++
	m.lastParams = p
	return m.report, m.err
}

type mockCalibration struct {
	run        bugbridge.RunRecord
	err        error
	calls      int
	lastParams service.CalibrationParams
}

func (m *mockCalibration) Calibrate(ctx context.Context, p service.CalibrationParams) (bugbridge.RunRecord, error) {
	m.calls++
	m.lastParams = p
	return m.run, m.err
}

type mockTracking struct {
	run        bugbridge.RunRecord
	err        error
	calls      int
	lastParams service.TrackingParams
}

func (m *mockTracking) Track(ctx context.Context, p service.TrackingParams) (bugbridge.RunRecord, error) {
	m.calls++
	m.lastParams = p
	return m.run, m.err
}

type mockRunLog struct {
	runs       []bugbridge.RunRecord
	run        bugbridge.RunRecord
	events     []bugbridge.RunEvent
	listErr    error
	getErr     error
	lastFilter service.RunFilter
	lastGetID  string
}

func (m *mockRunLog) List(ctx context.Context, f service.RunFilter) ([]bugbridge.RunRecord, error) {
	m.lastFilter = f
	return m.runs, m.listErr
}
func (m *mockRunLog) Get(ctx context.Context, id string) (bugbridge.RunRecord, []bugbridge.RunEvent, error) {
	m.lastGetID = id
	if m.getErr != nil {
		return bugbridge.RunRecord{}, nil, m.getErr
	}
	return m.run, m.events, nil
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
