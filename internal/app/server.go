// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vaultbank-service/internal/config"
	"vaultbank-service/internal/db"
	assignmentHandler "vaultbank-service/internal/handlers/assignment"
	complianceHandler "vaultbank-service/internal/handlers/compliance"
	otpHandler "vaultbank-service/internal/handlers/otp"
	wsHandler "vaultbank-service/internal/handlers/websocket"
	"vaultbank-service/internal/middleware"
	"vaultbank-service/internal/pkg/jwt"
	"vaultbank-service/internal/pkg/lock"
	"vaultbank-service/internal/pkg/metrics"
	"vaultbank-service/internal/pkg/ratelimit"
	"vaultbank-service/internal/repository/postgres"
	"vaultbank-service/internal/service/assignment"
	"vaultbank-service/internal/service/compliance"
	"vaultbank-service/internal/service/email"
	"vaultbank-service/internal/service/otp"
	"vaultbank-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, engine: gin.New(), logger: logger}
}

// Start wires every dependency and serves HTTP until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{
		URL:             s.cfg.DatabaseURL,
		MaxConns:        20,
		MaxConnLifetime: time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()
	s.logger.Info("connected to PostgreSQL")

	// ----- Redis -----
	// Without Redis the service still answers: assignments take no lock,
	// OTP resends are not throttled and the stream worker stays off.
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addresses: []string{s.cfg.RedisAddr},
		Password:  s.cfg.RedisPass,
		DB:        s.cfg.RedisDB,
		PoolSize:  10,
	})
	if err != nil {
		s.logger.Warn("redis unavailable, continuing without it", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		s.logger.Info("connected to Redis", zap.String("addr", s.cfg.RedisAddr))
	}

	// ----- JWT -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// ----- Email -----
	emailSender := email.NewEmailSender(
		s.cfg.SMTPHost,
		s.cfg.SMTPPort,
		s.cfg.SMTPUser,
		s.cfg.SMTPPass,
		s.cfg.SMTPFromName,
		s.cfg.SMTPSecure,
	)
	if !s.cfg.SMTPConfigured() {
		s.logger.Warn("SMTP is not configured, emails will be skipped")
	}

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	supportRepo := postgres.NewSupportRepository(dbWrapper)
	otpRepo := postgres.NewOTPRepository(dbWrapper)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(jwtManager.Verifier, m, s.logger)
	go hub.Run(ctx)

	// ----- Services -----
	var locker lock.Locker = lock.Noop{}
	var limiter otp.Limiter
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient, s.cfg.Assignment.LockTTL, s.cfg.Assignment.LockWait)
		limiter = ratelimit.NewRateLimiter(redisClient)
	}

	assignmentService := assignment.NewService(
		supportRepo,
		locker,
		hub,
		s.cfg.Assignment.WorkloadStatuses,
		m,
		s.logger,
	)

	otpService := otp.NewService(otpRepo, emailSender, limiter, s.cfg.OTP, m, s.logger)
	if s.cfg.OTP.TestMode {
		s.logger.Warn("OTP test mode is on, bypass codes are accepted")
	}

	janitor := otp.NewJanitor(otpService, s.cfg.OTP.PurgeSchedule, s.logger)
	if err := janitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start otp janitor: %w", err)
	}
	defer janitor.Stop()

	complianceService := compliance.NewNotificationService(emailSender, s.cfg.AppBaseURL, m, s.logger)

	// ----- Assignment worker -----
	var queue assignmentHandler.Enqueuer
	if redisClient != nil {
		worker := assignment.NewWorker(
			redisClient,
			assignmentService,
			s.cfg.Assignment.Stream,
			s.cfg.Assignment.Group,
			s.cfg.InstanceID,
			m,
			s.logger,
		)
		queue = worker
		if s.cfg.Assignment.WorkerEnabled {
			go func() {
				if err := worker.Run(ctx); err != nil {
					s.logger.Error("assignment worker exited", zap.Error(err))
				}
			}()
		}
	}

	// ----- Handlers -----
	handlers := &Handlers{
		AssignmentHandler: assignmentHandler.NewAssignmentHandler(assignmentService, queue, s.logger),
		OTPHandler:        otpHandler.NewOTPHandler(otpService, s.logger),
		ComplianceHandler: complianceHandler.NewComplianceHandler(complianceService, s.logger),
		WSHandler:         wsHandler.NewWebSocketHandler(hub, s.logger),
		AuthMiddleware:    middleware.NewAuthMiddleware(jwtManager.Verifier),
	}

	SetupRouter(s.engine, s.logger, handlers)

	return s.serve(ctx)
}

func (s *Server) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.cfg.HTTPAddr), zap.String("env", s.cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
