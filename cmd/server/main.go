package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/volunteerhub/backend/internal/config"
	"github.com/volunteerhub/backend/internal/identity"
	"github.com/volunteerhub/backend/internal/media"
	"github.com/volunteerhub/backend/internal/posts"
	"github.com/volunteerhub/backend/internal/registrations"
	"github.com/volunteerhub/backend/internal/store"
	"github.com/volunteerhub/backend/internal/users"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := store.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	db := mongoClient.Database(cfg.MongoDB)

	userStore := store.NewUserStore(db)
	postStore := store.NewPostStore(db)
	regStore := store.NewRegistrationStore(db)
	if err := regStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	auditStore := store.NewAuditStore(pgPool)
	if err := auditStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	teaserCache := posts.NewCache(rdb)

	// ── MinIO ────────────────────────────────────────────────
	mediaStore, err := store.NewMediaStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── Handlers ─────────────────────────────────────────────
	verifier := identity.Passthrough{}
	userHandler := users.NewHandler(userStore)
	postHandler := posts.NewHandler(postStore, teaserCache, verifier)
	regService := registrations.NewService(postStore, regStore, auditStore)
	regHandler := registrations.NewHandler(regService, teaserCache, auditStore, verifier)
	mediaHandler := media.NewHandler(mediaStore)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Liveness
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Volunteer server is running"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Users
	r.Post("/users", userHandler.Upsert)
	r.Get("/users", userHandler.List)
	r.Patch("/users", userHandler.Touch)

	// Posts
	r.Post("/posts", postHandler.Create)
	r.Get("/posts", postHandler.List)
	r.Get("/posts/{id}", postHandler.Get)
	r.Put("/posts/{id}", postHandler.Update)
	r.Delete("/posts/{id}", postHandler.Delete)
	r.Patch("/posts/{id}/volunteer", postHandler.SetVolunteers)
	r.Get("/my-posts", postHandler.MyPosts)

	// Registrations
	r.Post("/volunteer-requests", regHandler.Register)
	r.Get("/my-volunteer-requests", regHandler.MyRequests)
	r.Delete("/volunteer-requests/{id}", regHandler.Cancel)

	r.Route("/api", func(r chi.Router) {
		r.Post("/posts", postHandler.Create)
		r.Get("/posts", postHandler.Teaser)
		r.Get("/posts/all", postHandler.ListAll)
		r.Get("/posts/{id}", postHandler.Get)

		r.Post("/volunteers", regHandler.Register)
		r.Get("/volunteers", regHandler.HasRegistered)
		r.Get("/audit", regHandler.Audit)

		r.Post("/uploads", mediaHandler.Upload)
		r.Get("/uploads/{key}", mediaHandler.Download)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("Volunteer server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
