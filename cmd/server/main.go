package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"

	"campuspark/internal/api"
	"campuspark/internal/auth"
	"campuspark/internal/clock"
	"campuspark/internal/repository"
	"campuspark/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"
)

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := database.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	stripeWebhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")

	reservationRepo := repository.NewReservationRepository(database)
	lotRepo := repository.NewLotRepository(database)
	sweepRepo := repository.NewSweepRepository(database)
	adminRepo := repository.NewAdminRepository(database)
	adminAuthRepo := repository.NewAdminAuthRepository(database)

	systemClock := clock.SystemClock{}
	stripeService := service.NewStripeService()
	notifier := service.NewSenderService()

	reservationService := service.NewReservationService(reservationRepo, lotRepo, stripeService, notifier, systemClock)
	reconcileService := service.NewReconcileService(reservationRepo, lotRepo, notifier, systemClock)
	sweepService := service.NewSweepService(sweepRepo, lotRepo, notifier, systemClock)
	adminService := service.NewAdminService(adminRepo, lotRepo, sweepService)
	adminAuthService := service.NewAdminAuthService(adminAuthRepo)

	reservationHandler := api.NewReservationHandler(reservationService)
	webhookHandler := api.NewStripeWebhookHandler(stripeWebhookSecret, reconcileService)
	adminHandler := api.NewAdminHandler(adminService)
	adminAuthHandler := api.NewAdminAuthHandler(adminAuthService)

	// One sweep at startup, then daily. Overlap with an in-flight sweep is
	// safe because the underlying update only matches still-overdue rows.
	if _, err := sweepService.Sweep(); err != nil {
		log.Printf("Startup sweep failed: %v", err)
	}
	c := cron.New()
	if _, err := c.AddFunc("@daily", func() {
		if _, err := sweepService.Sweep(); err != nil {
			log.Printf("Scheduled sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule expiration sweep: %v", err)
	}
	c.Start()

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/reservations", reservationHandler.CreateReservation).Methods("POST")
	r.HandleFunc("/api/reservations/{code}", reservationHandler.GetReservation).Methods("GET")
	r.HandleFunc("/api/reservations/{code}", reservationHandler.CancelReservation).Methods("DELETE")
	r.HandleFunc("/api/reservations/{code}/extensions", reservationHandler.ExtendReservation).Methods("POST")
	r.HandleFunc("/api/lots/{id}/rate", reservationHandler.GetLotRate).Methods("GET")
	r.HandleFunc("/api/stripe/webhook", webhookHandler.HandleWebhook).Methods("POST")

	// Admin endpoints (protected)
	r.HandleFunc("/admin/login", adminAuthHandler.Login).Methods("POST")
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware)
	admin.HandleFunc("/users", adminAuthHandler.CreateAdmin).Methods("POST")
	admin.HandleFunc("/reservations", adminHandler.ListReservations).Methods("GET")
	admin.HandleFunc("/sweeps", adminHandler.ForceSweep).Methods("POST")
	admin.HandleFunc("/lots/{id}/spaces", adminHandler.UpdateLotSpaces).Methods("PUT")

	handler := handlers.LoggingHandler(os.Stdout, handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Stripe-Signature"}),
	)(r))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
