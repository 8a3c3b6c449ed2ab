package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/diskseek/diskseek/internal/api/handlers"
	"github.com/diskseek/diskseek/internal/config"
	"github.com/diskseek/diskseek/internal/platform"
	"github.com/diskseek/diskseek/internal/progress"
	"github.com/diskseek/diskseek/internal/scheduler"
	"github.com/diskseek/diskseek/internal/search"
	"github.com/diskseek/diskseek/internal/volume"
	"github.com/diskseek/diskseek/internal/websocket"
)

// SearchService runs searches.
type SearchService interface {
	Search(ctx context.Context, criteria search.Criteria) []search.Match
}

// VolumeLister enumerates mounted volumes.
type VolumeLister interface {
	List() []volume.Info
}

// RevealFunc opens the file manager at a path.
type RevealFunc func(ctx context.Context, path string) error

// Deps are the services the server exposes. Hub, Progress, Scheduler and
// Logs are optional.
type Deps struct {
	Config    *config.Config
	Search    SearchService
	Volumes   VolumeLister
	Hub       *websocket.Hub
	Progress  *progress.Manager
	Scheduler *scheduler.Scheduler
	Logs      LogsProvider
	Reveal    RevealFunc
}

// Server handles HTTP requests for the diskseek API.
type Server struct {
	echo     *echo.Echo
	hub      *websocket.Hub
	logger   zerolog.Logger
	cfg      *config.Config
	search   SearchService
	volumes  VolumeLister
	progress *progress.Manager
	sched    *scheduler.Scheduler
	logs     LogsProvider
	reveal   RevealFunc
}

// NewServer creates a new API server instance.
func NewServer(deps Deps, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	reveal := deps.Reveal
	if reveal == nil {
		reveal = platform.RevealInFileManager
	}

	s := &Server{
		echo:     e,
		hub:      deps.Hub,
		logger:   logger.With().Str("component", "api").Logger(),
		cfg:      cfg,
		search:   deps.Search,
		volumes:  deps.Volumes,
		progress: deps.Progress,
		sched:    deps.Scheduler,
		logs:     deps.Logs,
		reveal:   reveal,
	}

	if s.hub != nil {
		s.hub.SetOriginCheck(s.cfg.Server.OriginAllowed)
		s.hub.Handle("volumes:request", func(context.Context) (string, interface{}, error) {
			return "volumes:updated", s.volumes.List(), nil
		})
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID
	s.echo.Use(middleware.RequestID())

	s.echo.Use(securityHeaders())

	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		Skipper: func(c echo.Context) bool {
			// The logs endpoint is polled; logging it would feed itself.
			return strings.HasPrefix(c.Path(), "/api/v1/system/logs")
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	// Browser pages from other origins may neither read nor trigger anything.
	s.echo.Use(s.originGuard())

	// CORS, only for the configured extra origins
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			return s.cfg.Server.OriginListed(origin), nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Gzip compression
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// Skip compression for WebSocket
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	if s.hub != nil {
		s.echo.GET("/ws", s.hub.HandleWebSocket)
	}

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)
	api.GET("/volumes", s.listVolumes)
	api.GET("/search", s.runSearch)
	api.POST("/reveal", s.revealPath)

	system := api.Group("/system")
	if s.logs != nil {
		system.GET("/logs", s.recentLogs)
		system.GET("/logs/download", s.downloadLogs)
	}
	if s.progress != nil {
		system.GET("/activities", s.listActivities)
	}
	if s.sched != nil {
		h := handlers.NewSchedulerHandler(s.sched)
		tasks := system.Group("/tasks")
		tasks.GET("", h.ListTasks)
		tasks.GET("/:id", h.GetTask)
		tasks.POST("/:id/run", h.RunTask)
	}
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// securityHeaders sets conservative browser headers on every response.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("Referrer-Policy", "no-referrer")

			// Search results change with the filesystem.
			if strings.HasPrefix(c.Request().URL.Path, "/api") {
				h.Set("Cache-Control", "no-store")
			}

			return next(c)
		}
	}
}

// originGuard rejects requests whose Origin is neither the server's own nor
// listed in server.allowed_origins.
func (s *Server) originGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			origin := req.Header.Get(echo.HeaderOrigin)
			if !s.cfg.Server.OriginAllowed(origin, req.Host) {
				s.logger.Warn().Str("origin", origin).Str("uri", req.RequestURI).Msg("Rejected cross-origin request")
				return echo.NewHTTPError(http.StatusForbidden, "origin not allowed")
			}
			return next(c)
		}
	}
}

// --- Handler implementations ---

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Version       string    `json:"version"`
	Time          time.Time `json:"time"`
	Volumes       int       `json:"volumes"`
	Clients       int       `json:"clients"`
	SearchTimeout string    `json:"searchTimeout"`
}

func (s *Server) getStatus(c echo.Context) error {
	resp := statusResponse{
		Version:       config.Version,
		Time:          time.Now().UTC(),
		Volumes:       len(s.volumes.List()),
		SearchTimeout: s.cfg.Search.Timeout.String(),
	}
	if s.hub != nil {
		resp.Clients = s.hub.ClientCount()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) listActivities(c echo.Context) error {
	return c.JSON(http.StatusOK, s.progress.List())
}
