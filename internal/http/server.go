package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/events"
	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Options wires the optional parts of the API.
type Options struct {
	Scheduler   *service.Scheduler // nil disables the /schedule routes
	Bus         *events.Bus        // nil disables /events
	Metrics     http.Handler       // nil disables the metrics route
	MetricsPath string
	CORSOrigins []string
	ServiceName string // enables otelgin tracing when set
}

type Server struct {
	svc      *service.AutomationService
	opts     Options
	logger   *logrus.Logger
	validate *validator.Validate
	engine   *gin.Engine
}

func NewServer(svc *service.AutomationService, logger *logrus.Logger, opts Options) *Server {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	s := &Server{
		svc:      svc,
		opts:     opts,
		logger:   logger,
		validate: validator.New(),
		engine:   gin.New(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), s.requestLogger(), s.cors())
	if s.opts.ServiceName != "" {
		r.Use(otelgin.Middleware(s.opts.ServiceName))
	}

	r.GET("/", s.root)
	r.GET("/health", s.health)
	r.POST("/automate", s.automate)
	r.POST("/automate/async", s.automateAsync)
	r.POST("/workflow/execute", s.executeWorkflow)
	r.GET("/tasks", s.listTasks)
	r.GET("/tasks/:id", s.getTask)

	if s.opts.Scheduler != nil {
		r.POST("/schedule/task", s.scheduleTask)
		r.GET("/schedule/tasks", s.listScheduled)
		r.DELETE("/schedule/task/:id", s.deleteScheduled)
	}
	if s.opts.Bus != nil {
		r.GET("/events", s.streamEvents)
	}
	if s.opts.Metrics != nil {
		r.GET(s.opts.MetricsPath, gin.WrapH(s.opts.Metrics))
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting GroqPilot server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Infof("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("request")
	}
}

func (s *Server) cors() gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, o := range s.opts.CORSOrigins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
