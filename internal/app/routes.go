package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/finaccosolutions/portal/internal/llm"
	"github.com/finaccosolutions/portal/internal/mailer"
	"github.com/finaccosolutions/portal/internal/pdf"
	"github.com/finaccosolutions/portal/internal/plugins/assistant"
	"github.com/finaccosolutions/portal/internal/plugins/auth"
	"github.com/finaccosolutions/portal/internal/plugins/documents"
	"github.com/finaccosolutions/portal/internal/plugins/profile"
	"github.com/finaccosolutions/portal/internal/plugins/templates"
)

// spaDist is where the built frontend lands; spaIndex is its entry point,
// served for any client-side route.
const (
	spaDist  = "web/dist"
	spaIndex = "web/dist/index.html"
)

// RegisterRoutes constructs every plugin and wires its routes. This is the
// single place where all routes are aggregated: when a new plugin is added,
// it is registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo
	cfg := a.Config

	// --- Shared infrastructure ---
	mail := mailer.New(cfg.SMTP)
	gemini := llm.New(cfg.Gemini.Model, cfg.Gemini.Timeout, cfg.Gemini.MaxRetries)
	a.exporter = pdf.NewExporter(cfg.PDF)

	// --- Auth plugin ---
	userRepo := auth.NewUserRepository(a.DB)
	authService := auth.NewAuthService(
		userRepo,
		a.Redis,
		mail,
		cfg.BaseURL,
		cfg.Auth.SessionTTL,
		cfg.Auth.RefreshTTL,
		cfg.Auth.RefreshInterval,
	)
	a.sessions = authService
	oauth := auth.NewOAuthProvider(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret, cfg.BaseURL)
	auth.RegisterRoutes(e, auth.NewHandler(authService, oauth), authService)

	requireAuth := auth.RequireAuth(authService)
	requireAdmin := auth.RequireAdmin(userRepo)

	// --- Profile plugin ---
	profileService := profile.NewService(profile.NewRepository(a.DB))
	profile.RegisterRoutes(e, profile.NewHandler(profileService), requireAuth)

	// --- Template registry ---
	templateService := templates.NewService(templates.NewRepository(a.DB))
	templates.RegisterRoutes(e, templates.NewHandler(templateService), requireAuth, requireAdmin)

	// --- Document builder ---
	documentService := documents.NewService(templateService, documents.NewFormStore(a.Redis), a.exporter)
	documents.RegisterRoutes(e, documents.NewHandler(documentService), requireAuth)

	// --- Tax assistant ---
	limiter := assistant.NewChatLimiter(a.Redis, cfg.Chat.MaxRequests, cfg.Chat.Window)
	assistantService := assistant.NewService(assistant.NewRepository(a.DB), templateService, gemini, limiter)
	assistant.RegisterRoutes(e, assistant.NewHandler(assistantService), requireAuth)

	// --- Health check for Docker/orchestrator monitoring ---
	e.GET("/healthz", a.healthz)

	// --- Frontend ---
	// Static assets with the SPA entry point at the root. Unknown paths
	// fall through to the error handler, which serves the entry point for
	// non-API GETs so client-side routes survive a hard refresh.
	e.Static("/", spaDist)
}

// healthz reports liveness of the process and its backing stores.
func (a *App) healthz(c echo.Context) error {
	ctx := c.Request().Context()
	status := map[string]string{"status": "ok"}
	code := http.StatusOK

	if err := a.DB.PingContext(ctx); err != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		status["status"] = "degraded"
		status["redis"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
