package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/platform/auth"
	"github.com/J2c-ashwani/cdisease/internal/services"
)

type stubProfessionalService struct {
	statsFn       func(context.Context, string) (services.CoachDashboardStats, error)
	appointments  func(context.Context, string, services.Pagination) (domain.Page[services.ProfessionalAppointment], error)
	upcomingFn    func(context.Context, string) ([]services.ProfessionalAppointment, error)
	chatHistoryFn func(context.Context, string, string) (services.ChatSession, error)
	updateFeeFn   func(context.Context, services.UpdateFeeCommand) (services.Coach, error)
	profileFn     func(context.Context, string) (services.Coach, error)
}

func (s *stubProfessionalService) DashboardStats(ctx context.Context, userID string) (services.CoachDashboardStats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx, userID)
	}
	return services.CoachDashboardStats{}, errors.New("not implemented")
}

func (s *stubProfessionalService) Appointments(ctx context.Context, userID string, pager services.Pagination) (domain.Page[services.ProfessionalAppointment], error) {
	if s.appointments != nil {
		return s.appointments(ctx, userID, pager)
	}
	return domain.Page[services.ProfessionalAppointment]{}, errors.New("not implemented")
}

func (s *stubProfessionalService) UpcomingAppointments(ctx context.Context, userID string) ([]services.ProfessionalAppointment, error) {
	if s.upcomingFn != nil {
		return s.upcomingFn(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

func (s *stubProfessionalService) ChatHistory(ctx context.Context, userID string, appointmentID string) (services.ChatSession, error) {
	if s.chatHistoryFn != nil {
		return s.chatHistoryFn(ctx, userID, appointmentID)
	}
	return services.ChatSession{}, errors.New("not implemented")
}

func (s *stubProfessionalService) UpdateFee(ctx context.Context, cmd services.UpdateFeeCommand) (services.Coach, error) {
	if s.updateFeeFn != nil {
		return s.updateFeeFn(ctx, cmd)
	}
	return services.Coach{}, errors.New("not implemented")
}

func (s *stubProfessionalService) Profile(ctx context.Context, userID string) (services.Coach, error) {
	if s.profileFn != nil {
		return s.profileFn(ctx, userID)
	}
	return services.Coach{}, errors.New("not implemented")
}

var _ services.ProfessionalService = (*stubProfessionalService)(nil)

func newProfessionalTestRouter(service services.ProfessionalService) chi.Router {
	handler := NewProfessionalHandlers(nil, service)
	router := chi.NewRouter()
	router.Route("/professional", handler.Routes)
	return router
}

func professionalIdentity() *auth.Identity {
	return &auth.Identity{UserID: "usr_coach", Roles: []string{auth.RoleCoach}}
}

func TestProfessionalHandlersDashboardStats(t *testing.T) {
	service := &stubProfessionalService{
		statsFn: func(ctx context.Context, userID string) (services.CoachDashboardStats, error) {
			if userID != "usr_coach" {
				t.Fatalf("expected usr_coach, got %s", userID)
			}
			return services.CoachDashboardStats{
				TotalAppointments:     8,
				CompletedAppointments: 5,
				GrossEarnings:         2499,
				CommissionPaid:        624,
				NetEarnings:           1875,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/professional/dashboard/stats", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), professionalIdentity()))
	rr := httptest.NewRecorder()
	newProfessionalTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var payload struct {
		Stats struct {
			GrossEarnings  int64 `json:"gross_earnings"`
			CommissionPaid int64 `json:"commission_paid"`
			NetEarnings    int64 `json:"net_earnings"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.Stats.CommissionPaid != 624 || payload.Stats.NetEarnings != 1875 {
		t.Fatalf("unexpected stats payload: %+v", payload.Stats)
	}
}

func TestProfessionalHandlersAppointmentsEnriched(t *testing.T) {
	slot := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	service := &stubProfessionalService{
		appointments: func(ctx context.Context, userID string, pager services.Pagination) (domain.Page[services.ProfessionalAppointment], error) {
			return domain.Page[services.ProfessionalAppointment]{
				Items: []services.ProfessionalAppointment{
					{
						Appointment:  domain.Appointment{ID: "apt_1", ScheduledAt: slot},
						PatientName:  "Asha",
						PatientEmail: "asha@example.com",
					},
				},
				Total: 1,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/professional/appointments", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), professionalIdentity()))
	rr := httptest.NewRecorder()
	newProfessionalTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var payload struct {
		Items []struct {
			Appointment struct {
				ID string `json:"id"`
			} `json:"appointment"`
			PatientName string `json:"patient_name"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].PatientName != "Asha" {
		t.Fatalf("unexpected appointments payload: %+v", payload.Items)
	}
}

func TestProfessionalHandlersUpcoming(t *testing.T) {
	service := &stubProfessionalService{
		upcomingFn: func(ctx context.Context, userID string) ([]services.ProfessionalAppointment, error) {
			return []services.ProfessionalAppointment{
				{Appointment: domain.Appointment{ID: "apt_near"}},
				{Appointment: domain.Appointment{ID: "apt_far"}},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/professional/appointments/upcoming", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), professionalIdentity()))
	rr := httptest.NewRecorder()
	newProfessionalTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var payload struct {
		Appointments []struct {
			Appointment struct {
				ID string `json:"id"`
			} `json:"appointment"`
		} `json:"appointments"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(payload.Appointments) != 2 || payload.Appointments[0].Appointment.ID != "apt_near" {
		t.Fatalf("unexpected upcoming payload: %+v", payload.Appointments)
	}
}

func TestProfessionalHandlersChatHistoryForbiddenAppointment(t *testing.T) {
	service := &stubProfessionalService{
		chatHistoryFn: func(context.Context, string, string) (services.ChatSession, error) {
			return services.ChatSession{}, services.ErrProfessionalAppointmentNotFound
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/professional/appointments/apt_other/chat", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), professionalIdentity()))
	rr := httptest.NewRecorder()
	newProfessionalTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestProfessionalHandlersUpdateFee(t *testing.T) {
	service := &stubProfessionalService{
		updateFeeFn: func(ctx context.Context, cmd services.UpdateFeeCommand) (services.Coach, error) {
			if cmd.ConsultationFee != 2000 {
				t.Fatalf("expected fee 2000, got %d", cmd.ConsultationFee)
			}
			return domain.Coach{ID: "coach_1", ConsultationFee: 2000, Status: domain.CoachStatusApproved}, nil
		},
	}

	body := bytes.NewBufferString(`{"consultation_fee":2000}`)
	req := httptest.NewRequest(http.MethodPut, "/professional/fee", body)
	req = req.WithContext(auth.WithIdentity(req.Context(), professionalIdentity()))
	rr := httptest.NewRecorder()
	newProfessionalTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var payload struct {
		Coach struct {
			ConsultationFee int64 `json:"consultation_fee"`
		} `json:"coach"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.Coach.ConsultationFee != 2000 {
		t.Fatalf("expected fee 2000, got %d", payload.Coach.ConsultationFee)
	}
}

func TestProfessionalHandlersUpdateFeeOutOfRange(t *testing.T) {
	service := &stubProfessionalService{
		updateFeeFn: func(context.Context, services.UpdateFeeCommand) (services.Coach, error) {
			return services.Coach{}, services.ErrCoachFeeOutOfRange
		},
	}

	body := bytes.NewBufferString(`{"consultation_fee":20}`)
	req := httptest.NewRequest(http.MethodPut, "/professional/fee", body)
	req = req.WithContext(auth.WithIdentity(req.Context(), professionalIdentity()))
	rr := httptest.NewRecorder()
	newProfessionalTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
