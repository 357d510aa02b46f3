package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kichiro01/ToPick-api/internal/auth"
	"github.com/kichiro01/ToPick-api/internal/config"
	"github.com/kichiro01/ToPick-api/internal/metrics"
	"github.com/kichiro01/ToPick-api/internal/model"
)

// Notifier sends operator mails for contact and report requests.
type Notifier interface {
	SendContact(ctx context.Context, userID int64, text string) error
	SendReport(ctx context.Context, userID int64, reasonCode, content string, list model.MyList) error
}

// NotifyLimiter enforces the per-user cooldown between operator mails.
type NotifyLimiter interface {
	AcquireNotify(ctx context.Context, userID int64) (bool, time.Duration, error)
	ReleaseNotify(ctx context.Context, userID int64)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Users       model.UserStore
	Lists       model.MyListStore
	Themes      model.ThemeStore
	Auth        *auth.Service
	Notifier    Notifier
	RateLimiter NotifyLimiter
	AdminTokens *auth.AdminTokenVerifier
	Metrics     *metrics.Metrics
	DB          Pinger
	Logger      *slog.Logger
}

type Server struct {
	Users          model.UserStore
	Lists          model.MyListStore
	Themes         model.ThemeStore
	Auth           *auth.Service
	Notifier       Notifier
	RateLimiter    NotifyLimiter
	AdminTokens    *auth.AdminTokenVerifier
	Metrics        *metrics.Metrics
	DB             Pinger
	Logger         *slog.Logger
	Config         config.Config
	trustedProxies []net.IPNet
}

func NewServer(cfg config.Config, deps Deps) *Server {
	return &Server{
		Users:          deps.Users,
		Lists:          deps.Lists,
		Themes:         deps.Themes,
		Auth:           deps.Auth,
		Notifier:       deps.Notifier,
		RateLimiter:    deps.RateLimiter,
		AdminTokens:    deps.AdminTokens,
		Metrics:        deps.Metrics,
		DB:             deps.DB,
		Logger:         deps.Logger,
		Config:         cfg,
		trustedProxies: parseProxyCIDRs(cfg.TrustedProxies),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.withClientIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(apiHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.Config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", adminTokenHeader, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.With(s.requireRoles(accessRoles(http.MethodGet, "/healthz"))).Get("/healthz", s.handleHealth)
	if s.Metrics != nil {
		r.With(s.requireRoles(accessRoles(http.MethodGet, "/metrics"))).Handle("/metrics", s.Metrics.Handler())
	}

	r.With(s.requireRoles(accessRoles(http.MethodPost, "/auth/create"))).Post("/auth/create", s.handleIssueAuthCode)
	r.With(s.requireRoles(accessRoles(http.MethodPost, "/auth/authenticate"))).Post("/auth/authenticate", s.handleRedeemAuthCode)

	r.With(s.requireRoles(accessRoles(http.MethodGet, "/user/create"))).Get("/user/create", s.handleCreateUser)

	r.With(s.requireRoles(accessRoles(http.MethodGet, "/mylist/retrieve/all/{user_id}"))).Get("/mylist/retrieve/all/{user_id}", s.handleListByOwner)
	r.With(s.requireRoles(accessRoles(http.MethodPost, "/mylist/create-user"))).Post("/mylist/create-user", s.handleCreateUserAndList)
	r.With(s.requireRoles(accessRoles(http.MethodPost, "/mylist/create"))).Post("/mylist/create", s.handleCreateList)
	r.With(s.requireRoles(accessRoles(http.MethodPost, "/mylist/update"))).Post("/mylist/update", s.handleUpdateList)
	r.With(s.requireRoles(accessRoles(http.MethodPost, "/mylist/import"))).Post("/mylist/import", s.handleImportLists)
	r.With(s.requireRoles(accessRoles(http.MethodPut, "/mylist/title/{mylist_id}"))).Put("/mylist/title/{mylist_id}", s.handleUpdateTitle)
	r.With(s.requireRoles(accessRoles(http.MethodPut, "/mylist/theme/{mylist_id}"))).Put("/mylist/theme/{mylist_id}", s.handleUpdateTheme)
	r.With(s.requireRoles(accessRoles(http.MethodPut, "/mylist/topic/{mylist_id}"))).Put("/mylist/topic/{mylist_id}", s.handleUpdateTopic)
	r.With(s.requireRoles(accessRoles(http.MethodPut, "/mylist/privateflag/{mylist_id}"))).Put("/mylist/privateflag/{mylist_id}", s.handleUpdatePrivateFlag)
	r.With(s.requireRoles(accessRoles(http.MethodDelete, "/mylist/{mylist_id}"))).Delete("/mylist/{mylist_id}", s.handleDeleteList)

	r.With(s.requireRoles(accessRoles(http.MethodGet, "/browse/retrieve/theme"))).Get("/browse/retrieve/theme", s.handleListThemes)
	r.With(s.requireRoles(accessRoles(http.MethodGet, "/browse/retrieve/last-updated-date"))).Get("/browse/retrieve/last-updated-date", s.handleThemesLastUpdated)
	r.With(s.requireRoles(accessRoles(http.MethodGet, "/discover/retrieve/all/"))).Get("/discover/retrieve/all/", s.handleDiscover)

	r.With(s.requireRoles(accessRoles(http.MethodPost, "/contact"))).Post("/contact", s.handleContact)
	r.With(s.requireRoles(accessRoles(http.MethodPost, "/report"))).Post("/report", s.handleReport)

	r.With(s.requireRoles(accessRoles(http.MethodPut, "/reportedflag/activate/{mylist_id}"))).Put("/reportedflag/activate/{mylist_id}", s.handleActivateReportedFlag)
	r.With(s.requireRoles(accessRoles(http.MethodPut, "/reportedflag/inactivate/{mylist_id}"))).Put("/reportedflag/inactivate/{mylist_id}", s.handleInactivateReportedFlag)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.DB.Ping(ctx); err != nil {
			s.Logger.ErrorContext(r.Context(), "health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
