package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/deeply-app/deeply/internal/ai"
	"github.com/deeply-app/deeply/internal/config"
	"github.com/deeply-app/deeply/internal/db"
	"github.com/deeply-app/deeply/internal/logger"
	"github.com/deeply-app/deeply/internal/mail"
	"github.com/deeply-app/deeply/internal/porting"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// Server is the board application server
type Server struct {
	db      *db.DB
	cfg     *config.Config
	echo    *echo.Echo
	mailer  *mail.Mailer
	ai      *ai.Client
	reports *porting.ReportStore
}

// New creates a new server
func New(cfg *config.Config) (*Server, error) {
	d, err := db.Open(cfg.DSN)
	if err != nil {
		return nil, err
	}

	s := &Server{
		db:      d,
		cfg:     cfg,
		mailer:  mail.New(cfg),
		ai:      ai.NewClient(cfg.AIEndpoint, cfg.AIModel),
		reports: porting.NewReportStore(""),
	}

	s.setupEcho()

	return s, nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true

	// Custom logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			res := c.Response()
			duration := time.Since(start)

			logger.Info("HTTP Request",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("remote", req.RemoteAddr),
				logger.F("status", res.Status),
				logger.F("size", res.Size),
				logger.F("duration", duration.String()))

			return err
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	// Health check
	e.GET("/health", s.handleHealth)

	api := e.Group("/api")

	// Login is public but throttled per remote address
	loginLimiter := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Every(2 * time.Second),
			Burst:     5,
			ExpiresIn: 3 * time.Minute,
		}),
	})
	api.POST("/login", s.handleLogin, loginLimiter)

	// Everything else needs a session
	auth := api.Group("")
	auth.Use(s.sessionMiddleware)

	auth.POST("/logout", s.handleLogout)
	auth.GET("/me", s.handleMe)

	// Boards
	auth.GET("/projects", s.handleListProjects)
	auth.POST("/projects", s.handleCreateProject)
	auth.GET("/projects/:id", s.handleGetProject)
	auth.PUT("/projects/:id", s.handleUpdateProject)
	auth.DELETE("/projects/:id", s.handleDeleteProject)
	auth.PUT("/projects/:id/phases", s.handleReplacePhases)
	auth.POST("/projects/:id/access/:person", s.handleGrantAccess)
	auth.DELETE("/projects/:id/access/:person", s.handleRevokeAccess)

	// Bulk synchronization
	auth.GET("/projects/:id/export", s.handleExport)
	auth.POST("/projects/:id/import", s.handleImport)
	auth.GET("/import/errors", s.handleImportErrors)

	// Cards
	auth.GET("/projects/:id/cards", s.handleListCards)
	auth.POST("/cards", s.handleCreateCard)
	auth.GET("/cards/:id", s.handleGetCard)
	auth.PUT("/cards/:id", s.handleUpdateCard)
	auth.DELETE("/cards/:id", s.handleDeleteCard)

	// Tags
	auth.GET("/tags", s.handleListTags)
	auth.POST("/tags", s.handleCreateTag)
	auth.PUT("/tags/:id", s.handleUpdateTag)
	auth.DELETE("/tags/:id", s.handleDeleteTag)

	// Team
	auth.GET("/team", s.handleListPersons)
	auth.POST("/team", s.handleCreatePerson)
	auth.GET("/team/:id", s.handleGetPerson)
	auth.PUT("/team/:id", s.handleUpdatePerson)
	auth.DELETE("/team/:id", s.handleDeletePerson)

	// Kudos
	auth.GET("/kudos", s.handleListKudos)
	auth.POST("/kudos", s.handleCreateKudo)
	auth.POST("/kudos/:id/comments", s.handleCreateKudoComment)
	auth.POST("/kudos/:id/reactions", s.handleToggleKudoReaction)

	// Messenger
	auth.GET("/channels", s.handleListChannels)
	auth.POST("/channels", s.handleCreateChannel)
	auth.GET("/channels/:id", s.handleGetChannel)
	auth.PUT("/channels/:id", s.handleUpdateChannel)
	auth.DELETE("/channels/:id", s.handleDeleteChannel)
	auth.GET("/channels/:id/messages", s.handleListMessages)
	auth.POST("/channels/:id/messages", s.handlePostMessage)

	// Pomodoro
	auth.POST("/pomodoro/logs", s.handleCreatePomodoroLog)
	auth.GET("/pomodoro/logs", s.handleListPomodoroLogs)
	auth.GET("/pomodoro/stats", s.handlePomodoroStats)
	auth.GET("/pomodoro/ranking", s.handlePomodoroRanking)

	// Todo lists
	auth.GET("/todo/lists", s.handleListTodoLists)
	auth.POST("/todo/lists", s.handleCreateTodoList)
	auth.PUT("/todo/lists/:id", s.handleUpdateTodoList)
	auth.DELETE("/todo/lists/:id", s.handleDeleteTodoList)
	auth.POST("/todo/lists/:id/tasks", s.handleCreateTodoTask)
	auth.PUT("/todo/tasks/:id", s.handleUpdateTodoTask)
	auth.DELETE("/todo/tasks/:id", s.handleDeleteTodoTask)

	// Documents
	auth.GET("/projects/:id/docs", s.handleListFolder)
	auth.POST("/projects/:id/docs/folders", s.handleCreateFolder)
	auth.DELETE("/docs/folders/:id", s.handleDeleteFolder)
	auth.POST("/projects/:id/docs/files", s.handleUploadDocument)
	auth.GET("/docs/files/:id", s.handleGetDocument)
	auth.POST("/docs/files/:id/versions", s.handleUploadVersion)
	auth.GET("/docs/files/:id/versions/:version", s.handleDownloadVersion)
	auth.DELETE("/docs/files/:id", s.handleDeleteDocument)

	// Share
	auth.GET("/share", s.handleListShares)
	auth.POST("/share", s.handleCreateShare)
	auth.POST("/share/:id/resend", s.handleResendShare)
	auth.DELETE("/share/:id", s.handleDeleteShare)

	// AI assistant
	auth.POST("/ai/chat", s.handleAIChat)
	auth.GET("/ai/pending", s.handleAIPending)

	// Calendar and profile
	auth.GET("/calendar", s.handleCalendar)
	auth.GET("/profile", s.handleGetProfile)
	auth.PUT("/profile", s.handleUpdateProfile)
	auth.PUT("/profile/password", s.handleChangePassword)

	s.echo = e
}

// Close closes the database connection
func (s *Server) Close() error {
	return s.db.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start() error {
	logger.Info("Server listening", logger.F("addr", s.cfg.Listen))
	return s.echo.Start(s.cfg.Listen)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func jsonError(c echo.Context, status int, format string, args ...any) error {
	return c.JSON(status, map[string]string{"error": fmt.Sprintf(format, args...)})
}
