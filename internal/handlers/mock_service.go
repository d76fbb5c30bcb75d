package handlers

import (
	"context"
	"net/http"

	"aqi_backend/internal/models"
	"aqi_backend/internal/service"

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

type mockPrediction struct {
	result      models.PredictionResult
	err         error
	sampleCalls int
}

func (m *mockPrediction) Sample(ctx context.Context) (models.PredictionResult, error) {
	m.sampleCalls++
	return m.result, m.err
}

type mockHealth struct {
	status models.HealthStatus
}

func (m *mockHealth) Status(ctx context.Context) models.HealthStatus {
	return m.status
}

type mockReadings struct {
	resp       []models.ReadingEvent
	err        error
	latest     models.ReadingEvent
	latestErr  error
	lastFilter service.ReadingFilter
	listCalls  int
}

func (m *mockReadings) List(ctx context.Context, f service.ReadingFilter) ([]models.ReadingEvent, error) {
	m.listCalls++
	m.lastFilter = f
	return m.resp, m.err
}

func (m *mockReadings) Latest(ctx context.Context) (models.ReadingEvent, error) {
	return m.latest, m.latestErr
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
