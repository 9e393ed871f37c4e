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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Adimad01/Library-Managment-Project/config"
	"github.com/Adimad01/Library-Managment-Project/handlers"
	"github.com/Adimad01/Library-Managment-Project/middleware"
	"github.com/Adimad01/Library-Managment-Project/service"
	"github.com/Adimad01/Library-Managment-Project/store"
)

const maxUploadBytes = 10 << 20 // covers are images; 10 MB is plenty

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		logger.Fatal("mongodb connect", zap.Error(err))
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			logger.Warn("mongodb disconnect", zap.Error(err))
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		logger.Fatal("mongodb indexes", zap.Error(err))
	}
	logger.Info("connected to mongodb", zap.String("db", cfg.DBName))

	var s3Service *service.S3Service
	if cfg.S3Bucket != "" {
		s3Service, err = service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			logger.Fatal("s3", zap.Error(err))
		}
	} else {
		logger.Warn("AWS_S3_BUCKET not set; cover image uploads disabled")
	}

	usersHandler := &handlers.UsersHandler{DB: db, JWTSecret: cfg.JWTSecret, Log: logger}
	booksHandler := &handlers.BooksHandler{DB: db, S3: s3Service, Log: logger, MaxBytes: maxUploadBytes}
	txnsHandler := &handlers.TransactionsHandler{DB: db, Log: logger}

	r := chi.NewRouter()
	r.Use(middleware.CORS())
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Server is running"}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", usersHandler.Register)
		r.Post("/login", usersHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Get("/me", usersHandler.Me)
			r.Put("/me", usersHandler.UpdateMe)
			r.With(middleware.RequireAdmin).Get("/", usersHandler.List)
		})
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/{id}/cover", booksHandler.Cover)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Get("/", booksHandler.List)
			r.Get("/{id}", booksHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/", booksHandler.Create)
				r.Put("/{id}", booksHandler.Update)
				r.Delete("/{id}", booksHandler.Delete)
			})
		})
	})

	r.Route("/transactions", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Get("/", txnsHandler.ListMine)
		r.With(middleware.RequireAdmin).Get("/all", txnsHandler.ListAll)
		r.Post("/borrow", txnsHandler.Borrow)
		r.Post("/return", txnsHandler.Return)
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}
