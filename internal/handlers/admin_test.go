package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/platform/auth"
	"github.com/J2c-ashwani/cdisease/internal/services"
)

type stubAnalyticsService struct {
	overviewFn          func(context.Context) (services.PlatformOverview, error)
	listUsersFn         func(context.Context, services.UserListFilter) (domain.Page[services.User], error)
	listProfessionalsFn func(context.Context, services.ProfessionalListFilter) (domain.Page[services.Coach], error)
	listAppointmentsFn  func(context.Context, services.AppointmentListFilter) (domain.Page[services.Appointment], error)
	setStatusFn         func(context.Context, services.SetCoachStatusCommand) (services.Coach, error)
}

func (s *stubAnalyticsService) Overview(ctx context.Context) (services.PlatformOverview, error) {
	if s.overviewFn != nil {
		return s.overviewFn(ctx)
	}
	return services.PlatformOverview{}, errors.New("not implemented")
}

func (s *stubAnalyticsService) ListUsers(ctx context.Context, filter services.UserListFilter) (domain.Page[services.User], error) {
	if s.listUsersFn != nil {
		return s.listUsersFn(ctx, filter)
	}
	return domain.Page[services.User]{}, errors.New("not implemented")
}

func (s *stubAnalyticsService) ListProfessionals(ctx context.Context, filter services.ProfessionalListFilter) (domain.Page[services.Coach], error) {
	if s.listProfessionalsFn != nil {
		return s.listProfessionalsFn(ctx, filter)
	}
	return domain.Page[services.Coach]{}, errors.New("not implemented")
}

func (s *stubAnalyticsService) ListAppointments(ctx context.Context, filter services.AppointmentListFilter) (domain.Page[services.Appointment], error) {
	if s.listAppointmentsFn != nil {
		return s.listAppointmentsFn(ctx, filter)
	}
	return domain.Page[services.Appointment]{}, errors.New("not implemented")
}

func (s *stubAnalyticsService) SetProfessionalStatus(ctx context.Context, cmd services.SetCoachStatusCommand) (services.Coach, error) {
	if s.setStatusFn != nil {
		return s.setStatusFn(ctx, cmd)
	}
	return services.Coach{}, errors.New("not implemented")
}

var _ services.AnalyticsService = (*stubAnalyticsService)(nil)

func newAdminTestRouter(analytics services.AnalyticsService, catalog services.CatalogService) chi.Router {
	handler := NewAdminHandlers(nil, analytics, catalog)
	router := chi.NewRouter()
	router.Route("/admin", handler.Routes)
	return router
}

func adminIdentity() *auth.Identity {
	return &auth.Identity{UserID: "usr_admin", Roles: []string{auth.RoleAdmin}}
}

func TestAdminHandlersOverview(t *testing.T) {
	service := &stubAnalyticsService{
		overviewFn: func(context.Context) (services.PlatformOverview, error) {
			return services.PlatformOverview{
				TotalUsers:            3,
				TotalProfessionals:    1,
				PendingProfessionals:  1,
				GrossRevenue:          2499,
				CommissionEarned:      624,
				MonthGrossRevenue:     1500,
				MonthCommissionEarned: 375,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/overview", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), adminIdentity()))
	rr := httptest.NewRecorder()
	newAdminTestRouter(service, &stubCatalogService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var payload struct {
		Overview struct {
			TotalUsers       int64 `json:"total_users"`
			CommissionEarned int64 `json:"commission_earned"`
		} `json:"overview"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.Overview.TotalUsers != 3 || payload.Overview.CommissionEarned != 624 {
		t.Fatalf("unexpected overview payload: %+v", payload.Overview)
	}
}

func TestAdminHandlersListUsersRoleFilter(t *testing.T) {
	var captured services.UserListFilter
	service := &stubAnalyticsService{
		listUsersFn: func(ctx context.Context, filter services.UserListFilter) (domain.Page[services.User], error) {
			captured = filter
			return domain.Page[services.User]{
				Items: []services.User{{ID: "usr_1", Email: "asha@example.com", Role: domain.RolePatient}},
				Total: 1,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/users?role=Patient&search=asha", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), adminIdentity()))
	rr := httptest.NewRecorder()
	newAdminTestRouter(service, &stubCatalogService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.Role == nil || *captured.Role != domain.RolePatient {
		t.Fatalf("expected patient role filter, got %+v", captured.Role)
	}
	if captured.Search != "asha" {
		t.Fatalf("expected search asha, got %s", captured.Search)
	}
}

func TestAdminHandlersListProfessionalsStatusFilter(t *testing.T) {
	var captured services.ProfessionalListFilter
	service := &stubAnalyticsService{
		listProfessionalsFn: func(ctx context.Context, filter services.ProfessionalListFilter) (domain.Page[services.Coach], error) {
			captured = filter
			return domain.Page[services.Coach]{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/professionals?status=pending,approved", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), adminIdentity()))
	rr := httptest.NewRecorder()
	newAdminTestRouter(service, &stubCatalogService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if len(captured.Status) != 2 || captured.Status[0] != domain.CoachStatusPending || captured.Status[1] != domain.CoachStatusApproved {
		t.Fatalf("unexpected status filter: %+v", captured.Status)
	}
}

func TestAdminHandlersSetProfessionalStatus(t *testing.T) {
	var captured services.SetCoachStatusCommand
	service := &stubAnalyticsService{
		setStatusFn: func(ctx context.Context, cmd services.SetCoachStatusCommand) (services.Coach, error) {
			captured = cmd
			return domain.Coach{ID: cmd.CoachID, Status: cmd.Status}, nil
		},
	}

	body := bytes.NewBufferString(`{"status":"approved"}`)
	req := httptest.NewRequest(http.MethodPut, "/admin/professionals/coach_1/status", body)
	req = req.WithContext(auth.WithIdentity(req.Context(), adminIdentity()))
	rr := httptest.NewRecorder()
	newAdminTestRouter(service, &stubCatalogService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.CoachID != "coach_1" || captured.Status != domain.CoachStatusApproved || captured.ActorID != "usr_admin" {
		t.Fatalf("unexpected command: %+v", captured)
	}
}

func TestAdminHandlersSetProfessionalStatusUnknownCoach(t *testing.T) {
	service := &stubAnalyticsService{
		setStatusFn: func(context.Context, services.SetCoachStatusCommand) (services.Coach, error) {
			return services.Coach{}, services.ErrCoachNotFound
		},
	}

	body := bytes.NewBufferString(`{"status":"approved"}`)
	req := httptest.NewRequest(http.MethodPut, "/admin/professionals/coach_missing/status", body)
	req = req.WithContext(auth.WithIdentity(req.Context(), adminIdentity()))
	rr := httptest.NewRecorder()
	newAdminTestRouter(service, &stubCatalogService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestAdminHandlersCreateCondition(t *testing.T) {
	catalog := &stubCatalogService{
		upsertFn: func(ctx context.Context, cmd services.UpsertConditionCommand) (services.Condition, error) {
			if cmd.Condition.ID != "" {
				t.Fatalf("expected empty id for create, got %s", cmd.Condition.ID)
			}
			if cmd.ActorID != "usr_admin" {
				t.Fatalf("expected actor usr_admin, got %s", cmd.ActorID)
			}
			return domain.Condition{ID: "cond_new", Name: cmd.Condition.Name, Slug: "pcos", IsActive: true}, nil
		},
	}

	body := bytes.NewBufferString(`{"name":"PCOS","category":"hormonal"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/conditions", body)
	req = req.WithContext(auth.WithIdentity(req.Context(), adminIdentity()))
	rr := httptest.NewRecorder()
	newAdminTestRouter(&stubAnalyticsService{}, catalog).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload struct {
		Condition struct {
			ID   string `json:"id"`
			Slug string `json:"slug"`
		} `json:"condition"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.Condition.ID != "cond_new" || payload.Condition.Slug != "pcos" {
		t.Fatalf("unexpected condition payload: %+v", payload.Condition)
	}
}

func TestAdminHandlersUpdateConditionDeactivates(t *testing.T) {
	catalog := &stubCatalogService{
		upsertFn: func(ctx context.Context, cmd services.UpsertConditionCommand) (services.Condition, error) {
			if cmd.Condition.ID != "cond_diabetes" {
				t.Fatalf("expected cond_diabetes, got %s", cmd.Condition.ID)
			}
			if cmd.Condition.IsActive {
				t.Fatalf("expected is_active false")
			}
			return domain.Condition{ID: "cond_diabetes", Name: cmd.Condition.Name, IsActive: false}, nil
		},
	}

	body := bytes.NewBufferString(`{"name":"Type 2 Diabetes","is_active":false}`)
	req := httptest.NewRequest(http.MethodPut, "/admin/conditions/cond_diabetes", body)
	req = req.WithContext(auth.WithIdentity(req.Context(), adminIdentity()))
	rr := httptest.NewRecorder()
	newAdminTestRouter(&stubAnalyticsService{}, catalog).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}
