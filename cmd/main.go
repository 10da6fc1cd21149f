package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Djimarr/projek-maintenance/internal/attachment"
	"github.com/Djimarr/projek-maintenance/internal/catalog"
	"github.com/Djimarr/projek-maintenance/internal/config"
	"github.com/Djimarr/projek-maintenance/internal/db"
	"github.com/Djimarr/projek-maintenance/internal/engine"
	"github.com/Djimarr/projek-maintenance/internal/handlers"
	"github.com/Djimarr/projek-maintenance/internal/middleware"
	"github.com/Djimarr/projek-maintenance/internal/notify"
	"github.com/Djimarr/projek-maintenance/internal/report"
	"github.com/Djimarr/projek-maintenance/internal/telegram"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

type app struct {
	cfg     *config.Config
	store   db.Store
	engine  *engine.Engine
	handler http.Handler
	bot     *telegram.Bot
	mqtt    mqtt.Client
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.SetupLogging(); err != nil {
		log.WithError(err).Fatal("Failed to configure logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to start")
	}
	defer a.close()

	if err := a.run(ctx); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = store

	cat, err := catalog.New(store, 64)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if cfg.SeedCatalog {
		if err := cat.Seed(ctx, catalog.Defaults); err != nil {
			a.close()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		log.WithField("equipment", len(catalog.Defaults)).Info("Checklist catalog seeded")
	}

	photos, err := openPhotos(cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	exporter, err := report.NewExporter(store, cfg.ReportDir)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("report exporter: %w", err)
	}

	a.engine = engine.New(store, cat, photos, exporter, engine.WithTicketFlow(cfg.EnableTicketFlow))

	notifiers := notify.Multi{notify.LogNotifier{}}
	if cfg.MQTT.Broker != "" {
		client, err := notify.ConnectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			log.WithError(err).WithField("broker", cfg.MQTT.Broker).Warn("MQTT notifications disabled")
		} else {
			a.mqtt = client
			notifiers = append(notifiers, notify.NewMQTTNotifier(client, cfg.MQTT.TopicPrefix))
			log.WithField("broker", cfg.MQTT.Broker).Info("Connected to MQTT broker")
		}
	}
	if cfg.BotToken != "" {
		api, err := telegram.NewAPI(cfg.BotToken)
		if err != nil {
			a.close()
			return nil, err
		}
		log.WithField("bot", api.Self.UserName).Info("Authorized on Telegram")
		a.bot = telegram.New(api, a.engine)
		notifiers = append(notifiers, notify.NewTelegramNotifier(api))
	} else {
		log.Warn("BOT_TOKEN not set, Telegram transport disabled")
	}

	mux := http.NewServeMux()
	handlers.NewDashboardHandler(store, cat, exporter, photos, notifiers).Register(mux)
	handlers.NewChatHandler(a.engine).Register(mux)
	limiter := middleware.NewRateLimitMiddleware()
	a.handler = middleware.Chain(mux, middleware.Logging, limiter.RateLimit(cfg.RateLimit, time.Minute))
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	switch cfg.StoreDriver {
	case "mongo":
		client, err := db.ConnectMongo(cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		store, err := db.NewMongoStore(ctx, client, cfg.MongoDB)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo store: %w", err)
		}
		log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
		return store, nil
	default:
		store, err := db.OpenSQLite(cfg.DatabaseFile)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		log.WithField("file", cfg.DatabaseFile).Info("Opened SQLite database")
		return store, nil
	}
}

func openPhotos(cfg *config.Config) (attachment.Store, error) {
	if cfg.Artifact.Enabled {
		store, err := attachment.NewS3Store(attachment.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 photo store: %w", err)
		}
		return store, nil
	}
	store, err := attachment.NewLocalStore(cfg.ImageDir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (a *app) run(ctx context.Context) error {
	if a.bot != nil {
		go a.bot.Run(ctx)
	}

	srv := &http.Server{
		Addr:              a.cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", a.cfg.Port).Info("HTTP server listening")
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
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) close() {
	if a.mqtt != nil {
		a.mqtt.Disconnect(250)
	}
	if a.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.store.Close(ctx); err != nil {
			log.WithError(err).Warn("Failed to close store")
		}
	}
}
