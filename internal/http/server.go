package httpapi

import (
	"net/http"
	"time"

	"agrireport-backend-go/internal/config"
	"agrireport-backend-go/internal/models"
	"agrireport-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	DB            *sqlx.DB
	Config        config.Config
	Tokens        services.TokenService
	Hub           *services.Hub
	Log           *zap.Logger
	Accounts      *services.AccountService
	Farmers       *services.FarmerService
	Reports       *services.ReportService
	Notifications *services.NotificationService
	Reference     *services.ReferenceService
	Activity      *services.ActivityLog
}

func NewServer(db *sqlx.DB, cfg config.Config, log *zap.Logger, cache services.Cache, hub *services.Hub) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		TTL:        time.Duration(cfg.TokenTTLHours) * time.Hour,
		BcryptCost: cfg.BcryptCost,
	}
	validator := services.NewValidator(cfg.Region)
	activity := services.NewActivityLog(db, log)
	notifier := services.NewNotifier(db, hub, log)

	return &Server{
		DB:     db,
		Config: cfg,
		Tokens: tokens,
		Hub:    hub,
		Log:    log,
		Accounts: &services.AccountService{
			DB: db, Tokens: tokens, Validator: validator, Activity: activity, Log: log.Named("accounts"),
		},
		Farmers: &services.FarmerService{
			DB: db, Validator: validator, Region: cfg.Region, Activity: activity,
		},
		Reports: &services.ReportService{
			DB: db, Validator: validator, Notifier: notifier, Activity: activity, MaxPhotoBytes: cfg.MaxPhotoBytes,
		},
		Notifications: &services.NotificationService{DB: db},
		Reference: &services.ReferenceService{
			DB: db, Cache: cache, Validator: validator, Activity: activity,
		},
		Activity: activity,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(s.Log.Named("http")))
	r.Use(middleware.Recoverer)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/health", s.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws/notifications", s.NotificationSocket)

	loginLimit := s.Config.LoginRatePerMin
	if loginLimit <= 0 {
		loginLimit = 10
	}
	loginLimiter := httprate.NewRateLimiter(loginLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{Message: "Too many login attempts", Code: "rate_limited"})
		}),
	)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", s.Register)
		api.With(loginLimiter.Handler).Post("/auth/login", s.Login)

		api.Get("/barangays", s.Barangays)
		api.Get("/pest-types", s.PestTypes)
		api.Get("/crop-types", s.CropTypes)
		api.Get("/options", s.Options)
		api.Get("/news", s.News)

		api.Group(func(authed chi.Router) {
			authed.Use(WithAuth(s.Tokens))

			authed.Route("/farmer", func(farmer chi.Router) {
				farmer.Get("/me", s.Me)
				farmer.Get("/profile", s.Profile)
				farmer.Patch("/profile", s.UpdateProfile)
				farmer.Get("/farms", s.ListFarms)
				farmer.Post("/farms", s.AddFarm)
				farmer.Put("/farm/{farmId}", s.UpdateFarm)
				farmer.Patch("/farm/{farmId}", s.UpdateFarm)
				farmer.Delete("/farm/{farmId}", s.DeleteFarm)
			})

			authed.Route("/reports", func(reports chi.Router) {
				reports.Post("/", s.SubmitReport)
				reports.Get("/history", s.ReportHistory)
				reports.Get("/{reportId}", s.GetReport)
				reports.Get("/{reportId}/photo", s.ReportPhoto)
				reports.Get("/{reportId}/comments", s.ListComments)
				reports.Post("/{reportId}/comments", s.AddComment)
			})

			authed.Route("/notifications", func(n chi.Router) {
				n.Get("/", s.ListNotifications)
				n.Get("/unread-count", s.UnreadCount)
				n.Patch("/read-all", s.MarkAllRead)
				n.Delete("/read", s.ClearRead)
				n.Patch("/{notificationId}/read", s.MarkRead)
				n.Delete("/{notificationId}", s.DeleteNotification)
			})

			authed.Route("/admin", func(admin chi.Router) {
				admin.Use(RequireRole(models.RoleAdmin))
				admin.Get("/stats", s.AdminStats)
				admin.Get("/system", s.SystemStatus)
				admin.Get("/activity-logs", s.ActivityLogs)

				admin.Get("/farmers", s.AdminFarmers)
				admin.Get("/farmers/{farmerId}", s.AdminFarmer)

				admin.Get("/reports", s.AdminReports)
				admin.Get("/reports/export", s.ExportReports)
				admin.Patch("/reports/{reportId}/status", s.UpdateReportStatus)
				admin.Get("/reports/{reportId}/photo", s.ReportPhoto)

				admin.Post("/users", s.CreateAdmin)
				admin.Patch("/users/{userId}/active", s.SetUserActive)
				admin.Delete("/users/{userId}", s.DeleteUser)

				admin.Post("/barangays", s.CreateBarangay)
				admin.Delete("/barangays/{id}", s.DeleteBarangay)
				admin.Post("/{kind}", s.CreateLookup)
				admin.Delete("/{kind}/{id}", s.DeleteLookup)
				admin.Put("/settings/{key}", s.PutSetting)
				admin.Post("/news", s.CreateNews)
			})
		})
	})

	return r
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.DB.PingContext(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
