//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jalanria/service-rental/internal/application"
	"github.com/jalanria/service-rental/internal/common/database"
	"github.com/jalanria/service-rental/internal/common/kafka"
	"github.com/jalanria/service-rental/internal/domain/fare"
	"github.com/jalanria/service-rental/internal/events"
	"github.com/jalanria/service-rental/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	Redis        *redis.Client
	KafkaBrokers []string
	Cleanup      func()
}

// rentalStack holds the wired-up rental service components.
type rentalStack struct {
	Wizards         *application.WizardService
	Bookings        *application.BookingService
	Fleet           *application.FleetService
	Sessions        *repository.RedisSessionStore
	Consumer        *events.PaymentEventConsumer
	CleanupProducer func()
}

// setupContainers starts PostgreSQL, Redis and Kafka, applies the SQL
// migrations and returns connected clients.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "test_rental",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pgConfig := database.PostgresConfig{
		Host:     pgHost,
		Port:     pgPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_rental",
		SSLMode:  "disable",
	}

	var db *gorm.DB
	require.Eventually(t, func() bool {
		db, err = database.Connect(pgConfig, log)
		return err == nil
	}, 30*time.Second, time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(pgConfig.DatabaseURL(), "migrations", log))

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start Redis container")

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)
	redisClient := redis.NewClient(&redis.Options{Addr: net.JoinHostPort(redisHost, redisPort.Port())})
	require.NoError(t, redisClient.Ping(ctx).Err())

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, events.TopicBookingEvents, events.TopicNotificationEvents, events.TopicPaymentEvents)

	cleanup := func() {
		_ = redisClient.Close()
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		Redis:        redisClient,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupRentalStack wires the services the way cmd/server does, with
// great-circle routing in place of Google Maps.
func setupRentalStack(t *testing.T, infra *testInfra) *rentalStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	bookingRepo := repository.NewGormBookingRepository(infra.DB)
	vehicleRepo := repository.NewGormVehicleRepository(infra.DB)
	driverRepo := repository.NewGormDriverRepository(infra.DB)
	tariffRepo := repository.NewGormTariffRepository(infra.DB)
	sessions := repository.NewRedisSessionStore(infra.Redis, time.Hour)
	producer := kafka.NewProducer(infra.KafkaBrokers, logger)

	resolver := fare.NewRouteResolver(nil, time.Second, logger)
	tariffs := application.NewTariffService(tariffRepo, resolver, logger)
	fleetSvc := application.NewFleetService(vehicleRepo, driverRepo, tariffs, logger)
	bookingSvc := application.NewBookingService(bookingRepo, vehicleRepo, driverRepo, producer, logger)
	wizardSvc := application.NewWizardService(
		sessions,
		resolver,
		nil,
		tariffs,
		fleetSvc,
		bookingSvc,
		application.NewKafkaNotifier(producer),
		application.WizardConfig{Location: time.FixedZone("WITA", 8*60*60)},
		logger,
	)

	groupID := fmt.Sprintf("test-rental-%s", uuid.New().String()[:8])
	consumer := events.NewPaymentEventConsumer(infra.KafkaBrokers, groupID, bookingSvc, logger)

	return &rentalStack{
		Wizards:         wizardSvc,
		Bookings:        bookingSvc,
		Fleet:           fleetSvc,
		Sessions:        sessions,
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedUnit registers a driver and a vehicle of the given type and pairs them.
func seedUnit(t *testing.T, fleetSvc *application.FleetService, vehicleType, plate string) *application.VehicleDTO {
	t.Helper()
	ctx := context.Background()

	driver, err := fleetSvc.RegisterDriver(ctx, application.RegisterDriverRequest{
		FullName:      "Wayan Suarta",
		Phone:         "+6281100000042",
		LicenseNumber: "SIM-" + plate,
	})
	require.NoError(t, err)

	vehicle, err := fleetSvc.RegisterVehicle(ctx, application.RegisterVehicleRequest{
		PlateNumber: plate,
		Model:       "Toyota Innova",
		VehicleType: vehicleType,
		Seats:       6,
		Year:        2023,
	})
	require.NoError(t, err)

	vehicle, err = fleetSvc.AssignVehicleDriver(ctx, vehicle.ID, driver.ID)
	require.NoError(t, err)
	return vehicle
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForPaymentStatus polls the bookings table until the payment status matches.
func waitForPaymentStatus(t *testing.T, db *gorm.DB, bookingID uuid.UUID, expected string, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		if err := db.Where("id = ?", bookingID).First(&model).Error; err != nil {
			return false
		}
		if model.PaymentStatus == expected {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "booking payment did not become %s", expected)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the
// expected type whose subject matches, when subject is non-empty.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType, subject string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType && (subject == "" || ce.Subject == subject) {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	require.NoError(t, controllerConn.CreateTopics(topicConfigs...), "failed to create Kafka topics")

	time.Sleep(1 * time.Second)
}
