package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/appointment"
	appointmentPostgres "github.com/frahmantamala/hospital-management/internal/appointment/postgres"
	"github.com/frahmantamala/hospital-management/internal/auth"
	authPostgres "github.com/frahmantamala/hospital-management/internal/auth/postgres"
	otpDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/otp"
	"github.com/frahmantamala/hospital-management/internal/core/events"
	"github.com/frahmantamala/hospital-management/internal/notification"
	"github.com/frahmantamala/hospital-management/internal/otp"
	otpPostgres "github.com/frahmantamala/hospital-management/internal/otp/postgres"
	"github.com/frahmantamala/hospital-management/internal/patient"
	patientPostgres "github.com/frahmantamala/hospital-management/internal/patient/postgres"
	"github.com/frahmantamala/hospital-management/internal/payment"
	paymentPostgres "github.com/frahmantamala/hospital-management/internal/payment/postgres"
	"github.com/frahmantamala/hospital-management/internal/sequence"
	sequencePostgres "github.com/frahmantamala/hospital-management/internal/sequence/postgres"
	"github.com/frahmantamala/hospital-management/internal/slot"
	"github.com/frahmantamala/hospital-management/internal/transport/rest"
	"github.com/frahmantamala/hospital-management/internal/user"
	userPostgres "github.com/frahmantamala/hospital-management/internal/user/postgres"
	"github.com/frahmantamala/hospital-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := internal.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Environment, config.Logging.Level)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm rides on the already-pooled pgx connection. TranslateError turns
	// driver unique-violations into gorm.ErrDuplicatedKey, which the booking
	// flow maps to a slot conflict.
	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	eventBus := events.NewEventBus(log)

	// repositories
	authRepo := authPostgres.NewAuthRepository(gormDB)
	userRepo := userPostgres.NewUserRepository(gormDB)
	patientRepo := patientPostgres.NewPatientRepository(gormDB)
	appointmentRepo := appointmentPostgres.NewAppointmentRepository(gormDB)
	sequenceRepo := sequencePostgres.NewSequenceRepository(gormDB)
	otpRepo := otpPostgres.NewOtpRepository(gormDB)
	paymentRepo := paymentPostgres.NewPaymentRepository(gormDB)

	// services
	tokenGenerator := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authRepo, tokenGenerator, log)
	userService := user.NewService(userRepo, log)
	sequenceService := sequence.NewService(sequenceRepo, log)
	patientService := patient.NewService(patientRepo, sequenceService, log)

	mailer := notification.NewConsoleMailer(log)
	notificationService := notification.NewService(mailer, log)
	notificationService.RegisterEventHandlers(eventBus)

	otpService := otp.NewService(otpRepo, notificationService, log)

	appointmentService := appointment.NewService(
		appointmentRepo, userService, sequenceService, eventBus, config.Scheduling, log)
	slotService := slot.NewService(appointmentService, userService, config.Scheduling, log)
	paymentService := payment.NewService(
		paymentRepo, &paymentOtpAdapter{otp: otpService}, appointmentService, patientService,
		eventBus, config.Payment, log)

	// handlers
	authHandler := auth.NewHandler(authService)
	userHandler := user.NewHandler(userService)
	patientHandler := patient.NewHandler(patientService)
	appointmentHandler := appointment.NewHandler(appointmentService)
	slotHandler := slot.NewHandler(slotService)
	paymentHandler := payment.NewHandler(paymentService)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB,
		authHandler, userHandler, patientHandler, appointmentHandler, slotHandler, paymentHandler, log)

	return &Dependencies{
		Config: config,
		Logger: log,
		DB:     db,
		Router: router,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// paymentOtpAdapter bridges the payment flow's narrow OTP contract onto the
// otp service without the packages importing each other.
type paymentOtpAdapter struct {
	otp *otp.Service
}

func (a *paymentOtpAdapter) Generate(ctx context.Context, req payment.OtpGenerateRequest) (*payment.OtpIssued, error) {
	issued, err := a.otp.Generate(ctx, otp.GenerateRequest{
		Purpose:    req.Purpose,
		Target:     req.Target,
		MetaLast4:  req.MetaLast4,
		MetaAmount: req.MetaAmount,
		TTL:        req.TTL,
	})
	if err != nil {
		return nil, err
	}
	return &payment.OtpIssued{
		ChallengeID: issued.ChallengeID,
		Code:        issued.Code,
		ExpiresAt:   issued.ExpiresAt,
	}, nil
}

func (a *paymentOtpAdapter) Verify(ctx context.Context, challengeID, code string) (*otpDatamodel.Challenge, error) {
	return a.otp.Verify(ctx, challengeID, code)
}
