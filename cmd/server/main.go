package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/studyforge/backend/internal/auth"
	"github.com/studyforge/backend/internal/billing"
	"github.com/studyforge/backend/internal/database"
	"github.com/studyforge/backend/internal/documents"
	"github.com/studyforge/backend/internal/generator"
	"github.com/studyforge/backend/internal/invites"
	"github.com/studyforge/backend/internal/knowledge"
	"github.com/studyforge/backend/internal/middleware"
	"github.com/studyforge/backend/internal/models"
	"github.com/studyforge/backend/internal/quiz"
	"github.com/studyforge/backend/internal/usage"
)

// pdfReader adapts object storage to the quiz service's PDF lookup.
type pdfReader struct {
	storage documents.ObjectStorage
}

func (p pdfReader) PDF(doc *models.Document) ([]byte, error) {
	return p.storage.Read(doc.FilePath)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	storage, err := documents.NewLocalStorage()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	gen := generator.NewGenerator()
	stageCache := knowledge.NewStageCache(10 * time.Minute)

	// Stores
	knowledgeStore := knowledge.NewStore(db)
	quizStore := quiz.NewStore(db)
	usageStore := usage.NewStore(db)
	billingStore := billing.NewStore(db)
	inviteStore := invites.NewStore(db)
	documentStore := documents.NewStore(db)

	// Services
	var provider billing.Provider
	if os.Getenv("BILLING_API_KEY") == "" {
		log.Println("BILLING_API_KEY not set, using mock billing provider")
		provider = billing.MockProvider{}
	} else {
		provider = billing.NewHTTPProvider()
	}
	billingService := billing.NewService(billingStore, provider)
	usageService := usage.NewService(usageStore, billingService)
	knowledgeService := knowledge.NewService(knowledgeStore, stageCache)
	quizService := quiz.NewService(quizStore, knowledgeStore, gen, pdfReader{storage})
	documentService := documents.NewService(documentStore, storage, usageService, knowledgeService, quizService, gen)
	inviteService := invites.NewService(inviteStore, usageService)

	// Handlers
	authHandler := auth.NewHandler(db)
	documentHandler := documents.NewHandler(documentService)
	knowledgeHandler := knowledge.NewHandler(knowledgeService)
	quizHandler := quiz.NewHandler(quizService)
	usageHandler := usage.NewHandler(usageService)
	billingHandler := billing.NewHandler(billingService)
	inviteHandler := invites.NewHandler(inviteService)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/billing/webhook", billingHandler.Webhook).Methods("POST")
	api.HandleFunc("/invites/validate", inviteHandler.Validate).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/subjects", documentHandler.CreateSubject).Methods("POST")
	protected.HandleFunc("/subjects", documentHandler.ListSubjects).Methods("GET")
	protected.HandleFunc("/subjects/{id}", documentHandler.DeleteSubject).Methods("DELETE")
	protected.HandleFunc("/subjects/{id}/documents", documentHandler.Upload).Methods("POST")
	protected.HandleFunc("/subjects/{id}/documents", documentHandler.ListDocuments).Methods("GET")
	protected.HandleFunc("/subjects/{id}/progress", knowledgeHandler.GetSubjectProgress).Methods("GET")

	protected.HandleFunc("/documents/{id}", documentHandler.GetDocument).Methods("GET")
	protected.HandleFunc("/documents/{id}", documentHandler.DeleteDocument).Methods("DELETE")
	protected.HandleFunc("/documents/{id}/status", documentHandler.GetStatus).Methods("GET")
	protected.HandleFunc("/documents/{id}/tree", knowledgeHandler.GetTree).Methods("GET")
	protected.HandleFunc("/documents/{id}/progress", knowledgeHandler.GetDocumentProgress).Methods("GET")
	protected.HandleFunc("/documents/{id}/quiz-sets", quizHandler.GeneratePractice).Methods("POST")
	protected.HandleFunc("/documents/{id}/quiz-sets", quizHandler.ListSets).Methods("GET")

	protected.HandleFunc("/quiz-sets/{id}", quizHandler.GetSet).Methods("GET")
	protected.HandleFunc("/quiz-sets/{id}", quizHandler.DeleteSet).Methods("DELETE")
	protected.HandleFunc("/quiz-items/{id}/answer", quizHandler.SubmitAnswer).Methods("POST")

	protected.HandleFunc("/recommendation", knowledgeHandler.GetRecommendation).Methods("GET")
	protected.HandleFunc("/usage", usageHandler.GetUsage).Methods("GET")

	protected.HandleFunc("/billing/checkout", billingHandler.CreateCheckout).Methods("POST")
	protected.HandleFunc("/billing/subscription", billingHandler.GetSubscription).Methods("GET")

	protected.HandleFunc("/invites", inviteHandler.Create).Methods("POST")
	protected.HandleFunc("/invites", inviteHandler.List).Methods("GET")
	protected.HandleFunc("/invites/redeem", inviteHandler.Redeem).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go documentService.StartWorker(ctx, 5*time.Second)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stageCache.Sweep(time.Now())
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down")
		cancel()
		os.Exit(0)
	}()

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
