package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"frontend/internal/format"
	"frontend/internal/handler"
	"frontend/internal/middleware"
	"frontend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

type Server struct {
	router *gin.Engine
	http   *http.Server
	log    *logrus.Logger
}

// Options configure the router.
type Options struct {
	Addr       string
	Sessions   service.WalletService
	CookieName string
	Logger     *zap.Logger
}

// ParseTemplates parses the embedded page templates with the format helpers.
func ParseTemplates() (*template.Template, error) {
	return template.New("").Funcs(format.TemplateFuncs()).ParseFS(templatesFS, "templates/*.html")
}

func NewServer(h *handler.Handler, opts Options, log *logrus.Logger) (*Server, error) {
	tmpl, err := ParseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to open static assets: %w", err)
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(
		middleware.RequestID(),
		middleware.AccessLog(log),
		gin.Recovery(),
		middleware.WalletSession(opts.Sessions, opts.CookieName, opts.Logger),
	)
	router.StaticFS("/static", http.FS(static))
	router.NoRoute(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, "error.html", gin.H{
			"Title":   "Page not found",
			"Message": "The page you are looking for does not exist.",
			"Retry":   "/",
			"Wallet":  middleware.GetWallet(c),
			"Path":    c.Request.URL.Path,
		})
	})
	h.RegisterRoutes(router)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Server starting on %s...", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("Server stopped")
	return nil
}
