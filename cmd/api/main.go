package main

import (
	stdlog "log"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/momosms/backend/src/config"
	"github.com/username/momosms/backend/src/database"
	"github.com/username/momosms/backend/src/handlers"
	"github.com/username/momosms/backend/src/logger"
	"github.com/username/momosms/backend/src/utils"
)

func rateLimitMiddleware(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("MoMo SMS API server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	if err := database.SeedReferenceData(database.DB, config.Cfg.AdminUsername, config.Cfg.AdminPassword); err != nil {
		logger.L.Error("Failed to seed reference data", "error", err)
		stdlog.Fatalf("Failed to seed reference data: %v", err)
	}
	logger.L.Info("Database initialized successfully.")

	userCache := cache.New(config.Cfg.AuthCacheExpiry, 2*config.Cfg.AuthCacheExpiry)
	authMiddleware := handlers.NewAuthMiddleware(database.DB, userCache)
	txHandler := handlers.NewTransactionHandler(database.DB)

	logger.L.Info("Configuring routes...")
	mux := http.NewServeMux()

	withAuth := func(handler http.HandlerFunc) http.Handler {
		return authMiddleware.Middleware(handler)
	}

	mux.Handle("GET /transactions", withAuth(txHandler.HandleListTransactions))
	mux.Handle("GET /transactions/{id}", withAuth(txHandler.HandleGetTransaction))
	mux.Handle("POST /transactions", withAuth(txHandler.HandleCreateTransaction))
	mux.Handle("PUT /transactions/{id}", withAuth(txHandler.HandleUpdateTransaction))
	mux.Handle("DELETE /transactions/{id}", withAuth(txHandler.HandleDeleteTransaction))

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			utils.SendJSONError(w, "Not Found", "Endpoint not found", http.StatusNotFound)
			return
		}
		utils.SendJSON(w, map[string]string{"message": "MoMo SMS API is running"}, http.StatusOK)
	})

	limiter := rate.NewLimiter(
		rate.Every(time.Duration(config.Cfg.RateLimitEveryMs)*time.Millisecond),
		config.Cfg.RateLimitBurst)
	finalHandler := enableCORS(rateLimitMiddleware(limiter, http.MaxBytesHandler(mux, config.Cfg.MaxRequestBytes)))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	}
	logger.L.Info("Server stopped gracefully.")
}
