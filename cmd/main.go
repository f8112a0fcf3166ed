package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/rtodesk/rto-records/internal/auth"
	"github.com/rtodesk/rto-records/internal/db"
	"github.com/rtodesk/rto-records/internal/handlers"
	"github.com/rtodesk/rto-records/internal/lifecycle"
	"github.com/rtodesk/rto-records/internal/middleware"
	"github.com/rtodesk/rto-records/internal/notify"
	"github.com/rtodesk/rto-records/internal/records"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	log.Info("Connected to MongoDB")

	database := client.Database(db.DatabaseName())
	userStore := &db.MongoUserStore{Collection: database.Collection("users")}
	recordStore := &db.MongoRecordStore{
		Client:       client,
		Collection:   database.Collection("records"),
		Transactions: os.Getenv("MONGO_TRANSACTIONS") == "true",
	}

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}

	recordService := records.NewService(recordStore, lifecycle.DefaultWindows)

	authHandler := handlers.NewAuthHandler(authService, userStore)
	recordHandler := handlers.NewRecordHandler(recordService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional MQTT notifier for expiring records
	var notifier records.Notifier
	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		topic := os.Getenv("MQTT_TOPIC")
		if topic == "" {
			topic = "rto/records/expiring"
		}
		publisher, err := notify.NewMQTTPublisher(broker, "rto-records-api", topic)
		if err != nil {
			log.WithError(err).Warn("MQTT notifier disabled")
		} else {
			defer publisher.Close()
			notifier = publisher
		}
	}

	refreshAt := os.Getenv("REFRESH_AT")
	if refreshAt == "" {
		refreshAt = "01:30"
	}
	job := records.NewRefreshJob(recordStore, lifecycle.RefreshWindows, notifier)
	scheduler, err := records.NewScheduler(job, refreshAt)
	if err != nil {
		log.WithError(err).Fatal("Invalid REFRESH_AT")
	}
	scheduler.Start(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.HandleFunc("/api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			authHandler.GetProfile(w, r)
		case http.MethodPut:
			authHandler.UpdateProfile(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/auth/change-password", authHandler.ChangePassword)
	mux.HandleFunc("/api/records", recordHandler.Collection)
	mux.HandleFunc("/api/records/expiring", recordHandler.Expiring)
	mux.HandleFunc("/api/records/chain", recordHandler.Chain)
	mux.HandleFunc("/api/records/", recordHandler.Item)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()
	handler := rateLimiter.RateLimit(300, 60)(authMiddleware.Authenticate(mux))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}
	server := &http.Server{Addr: ":" + port, Handler: handler}

	go func() {
		log.WithField("port", port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.WithError(err).Error("MongoDB disconnect failed")
	}
}
