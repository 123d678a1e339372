package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meinhoongagan/trucktrack/config"
	"github.com/meinhoongagan/trucktrack/controllers"
	"github.com/meinhoongagan/trucktrack/cron"
	"github.com/meinhoongagan/trucktrack/db"
	"github.com/meinhoongagan/trucktrack/events"
	"github.com/meinhoongagan/trucktrack/logging"
	"github.com/meinhoongagan/trucktrack/middleware"
	"github.com/meinhoongagan/trucktrack/redis"
	"github.com/meinhoongagan/trucktrack/routes"
	"github.com/meinhoongagan/trucktrack/services"
	"github.com/meinhoongagan/trucktrack/storage"
	"github.com/meinhoongagan/trucktrack/utils"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logging.New(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info(ctx, "database ready", "driver", cfg.DBDriver)
	store := storage.NewGormStore(gdb)

	var (
		otps       services.OTPStore
		memoryOTPs *services.MemoryOTPStore
	)
	if cfg.RedisAddr != "" {
		client, err := redis.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		otps = services.NewRedisOTPStore(client, cfg.OTPTTL+10*time.Minute)
		log.Info(ctx, "otp store: redis", "addr", cfg.RedisAddr)
	} else {
		memoryOTPs = services.NewMemoryOTPStore()
		otps = memoryOTPs
		log.Warn(ctx, "otp store: in-process, codes are lost on restart")
	}

	var mailer utils.Mailer
	if cfg.SMTPHost != "" {
		mailer = utils.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass)
	} else {
		mailer = utils.NewLogMailer(log)
		log.Warn(ctx, "SMTP_HOST not set, emails are logged instead of sent")
	}

	var provider services.RouteProvider
	if cfg.MapsAPIKey != "" {
		provider = services.NewGoogleDirections(cfg.MapsAPIKey)
	} else {
		log.Warn(ctx, "MAPS_API_KEY not set, trip estimates are unavailable")
	}
	loc := utils.LoadLocation(cfg.Timezone)
	estimator := services.NewEstimator(provider, cfg.RatePerKm, loc)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := events.DialAMQP(ctx, cfg.AMQPURL, 5, log)
		if err != nil {
			return fmt.Errorf("connect to broker: %w", err)
		}
		publisher = p
	}
	defer publisher.Close()

	files, err := proofStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("proof storage: %w", err)
	}

	identity := services.NewIdentityService(store, otps, mailer, services.IdentityConfig{
		JWTSecret:          []byte(cfg.JWTSecret),
		TokenTTL:           cfg.TokenTTL,
		OTPTTL:             cfg.OTPTTL,
		AdminRoleKey:       cfg.AdminRoleKey,
		MasterAdminRoleKey: cfg.MasterAdminRoleKey,
	}, log)
	trips := services.NewTripService(store, estimator, publisher, loc, log)

	app := routes.NewApp(routes.Handlers{
		Auth:      controllers.NewAuthHandler(identity),
		Trips:     controllers.NewTripHandler(trips, estimator, log),
		Catalog:   controllers.NewCatalogHandler(services.NewCatalog(store, log)),
		Dashboard: controllers.NewDashboardHandler(services.NewReports(store, trips)),
		Proofs:    controllers.NewProofHandler(services.NewProofService(store, trips, files, log)),
		Admin:     controllers.NewAdminHandler(services.NewAdminService(store, log)),
		Health:    controllers.NewHealthHandler(gdb, version),
	}, middleware.Protected([]byte(cfg.JWTSecret), identity), log, os.Stdout)

	scheduler := cron.NewScheduler(cron.Config{
		Store:      store,
		Identity:   identity,
		MemoryOTPs: memoryOTPs,
		Mailer:     mailer,
		StaleAfter: cfg.StaleUserTTL,
		Location:   loc,
		Log:        log,
	})
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server starting", "port", cfg.Port)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}

func proofStorage(ctx context.Context, cfg *config.Config) (utils.ProofStorage, error) {
	switch cfg.ProofStorage {
	case "s3":
		return utils.NewS3ProofStorage(ctx, utils.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case "cloudinary":
		return utils.NewCloudinaryProofStorage(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	case "local", "":
		return utils.NewLocalProofStorage(cfg.ProofDir), nil
	default:
		return nil, fmt.Errorf("unknown PROOF_STORAGE %q", cfg.ProofStorage)
	}
}
