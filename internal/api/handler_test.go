package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alcyxob/plan-tracker/internal/domain"
	"alcyxob/plan-tracker/internal/lifecycle"
	"alcyxob/plan-tracker/internal/schedule"
	"alcyxob/plan-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "handler-test-secret"

// Stubs embed the interface so only the methods a test needs are implemented.

type stubPlanService struct {
	service.PlanService
	createPlan func(creatorID primitive.ObjectID, input service.CreatePlanInput) (*service.CreatePlanResult, error)
	updatePlan func(callerID, planID primitive.ObjectID, patch domain.PlanPatch) (*domain.Plan, error)
	report     func(userID primitive.ObjectID, unit int) (*domain.Assignment, error)
	complete   func(userID, assignmentID primitive.ObjectID) (*domain.Assignment, error)
}

func (s *stubPlanService) CreatePlan(_ context.Context, creatorID primitive.ObjectID, input service.CreatePlanInput) (*service.CreatePlanResult, error) {
	return s.createPlan(creatorID, input)
}

func (s *stubPlanService) UpdatePlan(_ context.Context, callerID, planID primitive.ObjectID, patch domain.PlanPatch) (*domain.Plan, error) {
	return s.updatePlan(callerID, planID, patch)
}

func (s *stubPlanService) ReportCompletedUnit(_ context.Context, userID primitive.ObjectID, unit int) (*domain.Assignment, error) {
	return s.report(userID, unit)
}

func (s *stubPlanService) CompleteDietAssignment(_ context.Context, userID, assignmentID primitive.ObjectID) (*domain.Assignment, error) {
	return s.complete(userID, assignmentID)
}

func (s *stubPlanService) ListPublic(_ context.Context, kind domain.PlanKind) ([]domain.PublicPlan, error) {
	return []domain.PublicPlan{{Kind: kind, Title: "Catalogue entry"}}, nil
}

type stubExpiryService struct {
	service.ExpiryService
	expiring func(professionalID primitive.ObjectID, kind domain.PlanKind) ([]domain.ExpiringAssignment, error)
	current  func(userID primitive.ObjectID, kind domain.PlanKind) (*domain.CurrentAssignment, error)
}

func (s *stubExpiryService) Expiring(_ context.Context, professionalID primitive.ObjectID, kind domain.PlanKind) ([]domain.ExpiringAssignment, error) {
	return s.expiring(professionalID, kind)
}

func (s *stubExpiryService) Current(_ context.Context, userID primitive.ObjectID, kind domain.PlanKind) (*domain.CurrentAssignment, error) {
	return s.current(userID, kind)
}

func newTestRouter(plans service.PlanService, expiry service.ExpiryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	reg := prometheus.NewRegistry()
	services := Services{
		Auth:   service.NewAuthService(nil, testSecret, time.Hour),
		Plan:   plans,
		Expiry: expiry,
	}
	SetupRoutes(router, services, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return router
}

func signToken(t *testing.T, userID primitive.ObjectID, role domain.Role, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := &service.Claims{
		UserID: userID.Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func do(router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestPingAndMetrics(t *testing.T) {
	router := newTestRouter(&stubPlanService{}, &stubExpiryService{})

	w := do(router, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())

	w = do(router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(&stubPlanService{}, &stubExpiryService{})
	userID := primitive.NewObjectID()

	w := do(router, http.MethodGet, "/api/v1/plans/public?kind=diet", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodGet, "/api/v1/plans/public?kind=diet", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", errorBody(t, w))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/public?kind=diet", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired := signToken(t, userID, domain.RoleClient, -time.Minute)
	w = do(router, http.MethodGet, "/api/v1/plans/public?kind=diet", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token has expired", errorBody(t, w))

	valid := signToken(t, userID, domain.RoleClient, time.Hour)
	w = do(router, http.MethodGet, "/api/v1/plans/public?kind=diet", valid, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/v1/plans/public?kind=zumba", valid, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinishDailyWorkout(t *testing.T) {
	userID := primitive.NewObjectID()
	token := signToken(t, userID, domain.RoleClient, time.Hour)

	tests := []struct {
		name     string
		path     string
		err      error
		wantCode int
	}{
		{"recorded", "/api/v1/assignments/workout/finish-daily/12", nil, http.StatusOK},
		{"no active assignment", "/api/v1/assignments/workout/finish-daily/1", service.ErrNoActiveAssignment, http.StatusNotFound},
		{"schedule exhausted", "/api/v1/assignments/workout/finish-daily/1", fmt.Errorf("%w: 2024-01-21 to 2024-01-01 at 3 days a week", lifecycle.ErrScheduleExhausted), http.StatusConflict},
		{"wrong state", "/api/v1/assignments/workout/finish-daily/1", &lifecycle.StateError{Op: "report", From: domain.StateCompleted}, http.StatusConflict},
		{"storage failure", "/api/v1/assignments/workout/finish-daily/1", fmt.Errorf("connection reset"), http.StatusInternalServerError},
		{"bad unit", "/api/v1/assignments/workout/finish-daily/first", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUnit int
			plans := &stubPlanService{report: func(id primitive.ObjectID, unit int) (*domain.Assignment, error) {
				require.Equal(t, userID, id)
				gotUnit = unit
				if tt.err != nil {
					return nil, tt.err
				}
				return &domain.Assignment{UserID: id, DailyTraining: unit, CompletedDays: 1, IsActual: true}, nil
			}}
			router := newTestRouter(plans, &stubExpiryService{})

			w := do(router, http.MethodPatch, tt.path, token, nil)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, 12, gotUnit)
				var got domain.Assignment
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, 12, got.DailyTraining)
			}
		})
	}
}

func TestCompleteDiet(t *testing.T) {
	userID := primitive.NewObjectID()
	assignmentID := primitive.NewObjectID()
	token := signToken(t, userID, domain.RoleClient, time.Hour)
	plans := &stubPlanService{complete: func(u, a primitive.ObjectID) (*domain.Assignment, error) {
		if a != assignmentID {
			return nil, service.ErrAssignmentNotFound
		}
		return &domain.Assignment{ID: a, UserID: u, IsCompleted: true, Progress: 100}, nil
	}}
	router := newTestRouter(plans, &stubExpiryService{})

	w := do(router, http.MethodPatch, "/api/v1/assignments/diet/"+assignmentID.Hex()+"/complete", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPatch, "/api/v1/assignments/diet/"+primitive.NewObjectID().Hex()+"/complete", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodPatch, "/api/v1/assignments/diet/not-an-id/complete", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetExpiring_ProfessionalOnly(t *testing.T) {
	proID := primitive.NewObjectID()
	expiry := &stubExpiryService{expiring: func(id primitive.ObjectID, kind domain.PlanKind) ([]domain.ExpiringAssignment, error) {
		require.Equal(t, proID, id)
		require.Equal(t, domain.PlanKindDiet, kind)
		return []domain.ExpiringAssignment{{Title: "Keto", DaysRemaining: 3}}, nil
	}}
	router := newTestRouter(&stubPlanService{}, expiry)

	w := do(router, http.MethodGet, "/api/v1/assignments/diet/expiring", signToken(t, primitive.NewObjectID(), domain.RoleClient, time.Hour), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(router, http.MethodGet, "/api/v1/assignments/diet/expiring", signToken(t, proID, domain.RoleProfessional, time.Hour), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got []domain.ExpiringAssignment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].DaysRemaining)
}

func TestGetCurrent(t *testing.T) {
	userID := primitive.NewObjectID()
	token := signToken(t, userID, domain.RoleClient, time.Hour)
	expiry := &stubExpiryService{current: func(_ primitive.ObjectID, kind domain.PlanKind) (*domain.CurrentAssignment, error) {
		if kind == domain.PlanKindDiet {
			return nil, service.ErrNoActiveAssignment
		}
		return &domain.CurrentAssignment{Assignment: domain.Assignment{Kind: kind, IsActual: true}}, nil
	}}
	router := newTestRouter(&stubPlanService{}, expiry)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/v1/assignments/workout/current", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/api/v1/assignments/diet/current", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/api/v1/assignments/yoga/current", token, nil).Code)
}

func TestCreatePlan(t *testing.T) {
	creatorID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()
	token := signToken(t, creatorID, domain.RoleProfessional, time.Hour)

	var got service.CreatePlanInput
	plans := &stubPlanService{createPlan: func(id primitive.ObjectID, input service.CreatePlanInput) (*service.CreatePlanResult, error) {
		require.Equal(t, creatorID, id)
		got = input
		if input.DaysPerWeek < 0 {
			return nil, &schedule.ConfigurationError{Field: "daysPerWeek", Value: input.DaysPerWeek}
		}
		return &service.CreatePlanResult{Plan: &domain.Plan{Kind: input.Kind, Title: input.Title}}, nil
	}}
	router := newTestRouter(plans, &stubExpiryService{})

	w := do(router, http.MethodPost, "/api/v1/plans", token, gin.H{
		"kind": "workout", "title": "Split", "daysPerWeek": 4, "monthsValid": 2,
		"userId": clientID.Hex(), "startDate": "2024-01-31", "timeToWorkout": "07:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, got.UserID)
	assert.Equal(t, clientID, *got.UserID)
	require.NotNil(t, got.StartDate)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), *got.StartDate)
	assert.Equal(t, 4, got.DaysPerWeek)
	assert.Equal(t, "07:00", got.TimeToWorkout)

	w = do(router, http.MethodPost, "/api/v1/plans", token, gin.H{"kind": "workout", "title": "Bad", "daysPerWeek": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "daysPerWeek")

	w = do(router, http.MethodPost, "/api/v1/plans", token, gin.H{"kind": "diet", "title": "x", "startDate": "31/01/2024"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Midnight at +03:00 is still the previous day in UTC; only bare dates are accepted.
	got = service.CreatePlanInput{}
	w = do(router, http.MethodPost, "/api/v1/plans", token, gin.H{
		"kind": "diet", "title": "x", "userId": clientID.Hex(), "startDate": "2024-01-01T00:00:00+03:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "startDate")
	assert.Nil(t, got.StartDate, "the plan service is not reached")

	w = do(router, http.MethodPost, "/api/v1/plans", token, gin.H{"kind": "pilates", "title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdatePlan_OnlyPresentFields(t *testing.T) {
	creatorID := primitive.NewObjectID()
	planID := primitive.NewObjectID()
	token := signToken(t, creatorID, domain.RoleProfessional, time.Hour)

	var got domain.PlanPatch
	plans := &stubPlanService{updatePlan: func(_, id primitive.ObjectID, patch domain.PlanPatch) (*domain.Plan, error) {
		require.Equal(t, planID, id)
		got = patch
		return &domain.Plan{ID: id}, nil
	}}
	router := newTestRouter(plans, &stubExpiryService{})

	w := do(router, http.MethodPatch, "/api/v1/plans/"+planID.Hex(), token, gin.H{"isPublic": false, "monthsValid": 4})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.IsPublic)
	assert.False(t, *got.IsPublic)
	require.NotNil(t, got.MonthsValid)
	assert.Equal(t, 4, *got.MonthsValid)
	assert.Nil(t, got.Title)
	assert.Nil(t, got.DaysPerWeek)
	assert.Equal(t, map[string]any{"isPublic": false, "monthsValid": 4}, map[string]any(got.Fields()))
}
