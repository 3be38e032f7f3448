package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/J2c-ashwani/cdisease/internal/payments"
	"github.com/J2c-ashwani/cdisease/internal/platform/config"
	"github.com/J2c-ashwani/cdisease/internal/repositories"
	"github.com/J2c-ashwani/cdisease/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Auth         services.AuthService
	Catalog      services.CatalogService
	Coaches      services.CoachService
	Chat         services.ChatService
	Bookings     services.BookingService
	Appointments services.AppointmentService
	Professional services.ProfessionalService
	Analytics    services.AnalyticsService
	System       services.SystemService
	Audit        services.AuditRecorder
}

// Deps carries collaborators that are constructed outside the container, such as
// token issuance, signed-URL clients, and the Pub/Sub publisher. Any field may be
// nil; dependent features degrade rather than fail at startup.
type Deps struct {
	Tokens  services.TokenIssuer
	Uploads services.UploadURLSigner
	Events  services.EventPublisher
	Build   services.BuildInfo
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides real
// implementations, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, deps Deps) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(reg, cfg, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients, background workers, or caches.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(reg repositories.Registry, cfg config.Config, deps Deps) (Services, error) {
	var svc Services

	pricing, err := payments.NewCalculator(payments.CalculatorDeps{
		Policy: payments.Policy{
			CommissionRate: cfg.Marketplace.CommissionRate,
			PlatformFee:    cfg.Marketplace.PlatformFee,
		},
		Logger: deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build pricing calculator: %w", err)
	}

	if logsRepo := reg.AuditLogs(); logsRepo != nil {
		audit, err := services.NewAuditTrail(services.AuditTrailDeps{
			Logs:   logsRepo,
			Clock:  time.Now,
			Logger: deps.Logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build audit trail: %w", err)
		}
		svc.Audit = audit
	}

	if usersRepo := reg.Users(); usersRepo != nil && deps.Tokens != nil {
		authSvc, err := services.NewAuthService(services.AuthServiceDeps{
			Users:  usersRepo,
			Tokens: deps.Tokens,
			Clock:  time.Now,
			Logger: deps.Logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build auth service: %w", err)
		}
		svc.Auth = authSvc
	}

	if conditionsRepo := reg.Conditions(); conditionsRepo != nil {
		catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
			Conditions: conditionsRepo,
			Coaches:    reg.Coaches(),
			Clock:      time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build catalog service: %w", err)
		}
		svc.Catalog = catalogSvc
	}

	if coachesRepo := reg.Coaches(); coachesRepo != nil {
		coachSvc, err := services.NewCoachService(services.CoachServiceDeps{
			Coaches:      coachesRepo,
			Conditions:   reg.Conditions(),
			Users:        reg.Users(),
			Appointments: reg.Appointments(),
			Pricing:      pricing,
			Fees: services.FeeBounds{
				Min: cfg.Marketplace.MinConsultationFee,
				Max: cfg.Marketplace.MaxConsultationFee,
			},
			Uploads:      deps.Uploads,
			UploadBucket: cfg.Storage.ProfileImagesBucket,
			Clock:        time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build coach service: %w", err)
		}
		svc.Coaches = coachSvc
	}

	if sessionsRepo := reg.ChatSessions(); sessionsRepo != nil {
		chatSvc, err := services.NewChatService(services.ChatServiceDeps{
			Sessions:   sessionsRepo,
			Questions:  reg.ChatQuestions(),
			Conditions: reg.Conditions(),
			Coaches:    reg.Coaches(),
			Clock:      time.Now,
			Logger:     deps.Logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build chat service: %w", err)
		}
		svc.Chat = chatSvc
	}

	if bookingsRepo := reg.Bookings(); bookingsRepo != nil {
		bookingSvc, err := services.NewBookingService(services.BookingServiceDeps{
			Bookings:        bookingsRepo,
			Sessions:        reg.ChatSessions(),
			Coaches:         reg.Coaches(),
			Pricing:         pricing,
			Events:          deps.Events,
			DurationMinutes: cfg.Marketplace.BookingDurationMinutes,
			Clock:           time.Now,
			Logger:          deps.Logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build booking service: %w", err)
		}
		svc.Bookings = bookingSvc
	}

	if appointmentsRepo := reg.Appointments(); appointmentsRepo != nil {
		appointmentSvc, err := services.NewAppointmentService(services.AppointmentServiceDeps{
			Appointments: appointmentsRepo,
			Sessions:     reg.ChatSessions(),
			Coaches:      reg.Coaches(),
			Conditions:   reg.Conditions(),
			Pricing:      pricing,
			Events:       deps.Events,
			Clock:        time.Now,
			Logger:       deps.Logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build appointment service: %w", err)
		}
		svc.Appointments = appointmentSvc
	}

	if svc.Coaches != nil {
		professionalSvc, err := services.NewProfessionalService(services.ProfessionalServiceDeps{
			Coaches:      svc.Coaches,
			Appointments: reg.Appointments(),
			Sessions:     reg.ChatSessions(),
			Users:        reg.Users(),
			Clock:        time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build professional service: %w", err)
		}
		svc.Professional = professionalSvc

		analyticsSvc, err := services.NewAnalyticsService(services.AnalyticsServiceDeps{
			Users:        reg.Users(),
			Coaches:      svc.Coaches,
			CoachRepo:    reg.Coaches(),
			Appointments: reg.Appointments(),
			Pricing:      pricing,
			Audit:        svc.Audit,
			Clock:        time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build analytics service: %w", err)
		}
		svc.Analytics = analyticsSvc
	}

	if healthRepo := reg.Health(); healthRepo != nil {
		build := deps.Build
		if build.Environment == "" {
			build.Environment = cfg.Security.Environment
		}
		if build.StartedAt.IsZero() {
			build.StartedAt = time.Now().UTC()
		}
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            time.Now,
			Build:            build,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}
