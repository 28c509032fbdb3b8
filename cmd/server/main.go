package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jalanria/service-rental/internal/application"
	"github.com/jalanria/service-rental/internal/common/auth"
	"github.com/jalanria/service-rental/internal/common/database"
	"github.com/jalanria/service-rental/internal/common/health"
	"github.com/jalanria/service-rental/internal/common/kafka"
	"github.com/jalanria/service-rental/internal/common/logger"
	"github.com/jalanria/service-rental/internal/common/middleware"
	"github.com/jalanria/service-rental/internal/config"
	"github.com/jalanria/service-rental/internal/domain/fare"
	"github.com/jalanria/service-rental/internal/domain/wizard"
	rentalEvents "github.com/jalanria/service-rental/internal/events"
	"github.com/jalanria/service-rental/internal/handler"
	"github.com/jalanria/service-rental/internal/repository"
	"github.com/jalanria/service-rental/internal/routing"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-rental")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-rental",
		zap.String("port", cfg.Port),
		zap.String("timezone", cfg.Location.String()),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.VehicleTypeModel{},
			&repository.DriverModel{},
			&repository.VehicleModel{},
			&repository.BookingModel{},
			&repository.InspectionModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.Issuer,
		15*time.Minute,
		7*24*time.Hour,
	)

	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Wizard sessions live in Redis; a single instance can run without it.
	var sessions wizard.SessionStore
	var checkers []health.Checker
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	})
	defer func() { _ = redisClient.Close() }()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, keeping wizard sessions in memory",
			zap.String("addr", cfg.RedisConfig.Addr),
			zap.Error(err),
		)
		sessions = repository.NewMemorySessionStore(cfg.WizardTTL)
	} else {
		redisStore := repository.NewRedisSessionStore(redisClient, cfg.WizardTTL)
		sessions = redisStore
		checkers = append(checkers, redisStore)
	}
	pingCancel()

	// Routing and geocoding use Google Maps when a key is configured;
	// otherwise distances fall back to the great-circle estimate.
	var mapsRouter fare.Router
	var geocoder application.Geocoder
	if cfg.MapsAPIKey != "" {
		google, err := routing.NewGoogleRouter(cfg.MapsAPIKey, cfg.MapsRegion)
		if err != nil {
			log.Fatal("failed to create maps client", zap.Error(err))
		}
		mapsRouter = google
		geocoder = google
	} else {
		log.Warn("MAPS_API_KEY not set, using great-circle distances")
	}
	routeResolver := fare.NewRouteResolver(mapsRouter, cfg.RoutingTimeout, log)

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	vehicleRepo := repository.NewGormVehicleRepository(db)
	driverRepo := repository.NewGormDriverRepository(db)
	inspectionRepo := repository.NewGormInspectionRepository(db)
	tariffRepo := repository.NewGormTariffRepository(db)

	// Initialize application services
	tariffService := application.NewTariffService(tariffRepo, routeResolver, log)
	fleetService := application.NewFleetService(vehicleRepo, driverRepo, tariffService, log)
	bookingService := application.NewBookingService(bookingRepo, vehicleRepo, driverRepo, kafkaProducer, log)
	inspectionService := application.NewInspectionService(
		inspectionRepo,
		bookingRepo,
		vehicleRepo,
		driverRepo,
		kafkaProducer,
		log,
	)
	wizardService := application.NewWizardService(
		sessions,
		routeResolver,
		geocoder,
		tariffService,
		fleetService,
		bookingService,
		application.NewKafkaNotifier(kafkaProducer),
		application.WizardConfig{
			LockWait:       cfg.LockWait,
			GeocodeTimeout: cfg.GeocodeTimeout,
			PersistTimeout: cfg.PersistTimeout,
			NotifyTimeout:  cfg.NotifyTimeout,
			RequestTimeout: cfg.RequestTimeout,
			Location:       cfg.Location,
		},
		log,
	)

	// Start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "rental-service"
	paymentConsumer := rentalEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		bookingService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	healthHandler := health.NewHandler(db, "service-rental", checkers...)
	healthHandler.RegisterRoutes(router)

	handler.NewCatalogHandler(tariffService, fleetService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewWizardHandler(wizardService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewInspectionHandler(inspectionService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminBookingHandler(bookingService, tariffService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewFleetHandler(fleetService).RegisterRoutes(&router.RouterGroup, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-rental...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	// Let queued notifications and booking events reach Kafka before the
	// producer is closed.
	wizardService.Wait()
	bookingService.Wait()
	inspectionService.Wait()

	log.Info("service-rental stopped")
}
