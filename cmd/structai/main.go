package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/config"
	"github.com/capstruct/structai/internal/domain"
	logpkg "github.com/capstruct/structai/internal/logger"
	"github.com/capstruct/structai/internal/metrics"
	"github.com/capstruct/structai/internal/repository/promptcache"
	chiTransport "github.com/capstruct/structai/internal/transport/chi"
	"github.com/capstruct/structai/internal/transport/cortex"
	openaiCompletion "github.com/capstruct/structai/internal/transport/openai"
	"github.com/capstruct/structai/internal/version"
	chatuc "github.com/capstruct/structai/internal/usecase/chat"
	classifyuc "github.com/capstruct/structai/internal/usecase/classify"
	healthuc "github.com/capstruct/structai/internal/usecase/health"
	retrieveuc "github.com/capstruct/structai/internal/usecase/retrieve"
	rewriteuc "github.com/capstruct/structai/internal/usecase/rewrite"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting structai API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("search_base_url", cfg.Search.BaseURL),
		zap.String("model", cfg.Completion.Model),
	)

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	searchClient := cortex.NewClient(&cortex.Config{
		BaseURL: cfg.Search.BaseURL,
		APIKey:  cfg.Search.APIKey,
		Timeout: time.Duration(cfg.Search.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	completer := openaiCompletion.NewCompleter(&openaiCompletion.Config{
		APIKey:  cfg.Completion.APIKey,
		BaseURL: cfg.Completion.BaseURL,
		Logger:  logger,
	})

	// Classification is cheap to cache: the same question always maps to
	// the same category. Cache is optional; the pipeline runs without it.
	var classifierCompleter domain.Completer = completer
	var cachePinger healthuc.CachePinger
	if len(cfg.Cache.Addrs) > 0 {
		store, err := promptcache.NewRedisStore(promptcache.RedisConfig{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create prompt cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(context.Background(), 30*time.Second); err != nil {
			logger.Fatal("Prompt cache not ready", zap.Error(err))
		}
		logger.Info("Connected to prompt cache")

		classifierCompleter = promptcache.New(completer, store, metrics.ClassifierCacheTotal, logger)
		cachePinger = store
	}

	classifier := classifyuc.New(classifierCompleter, cfg.Completion.Model, logger)
	rewriter := rewriteuc.New(completer, cfg.Completion.Model, logger)
	retriever := retrieveuc.New(classifier, searchClient, cfg.Pipeline.NumChunks, logger)

	chatSvc := chatuc.New(chatuc.Config{
		Retriever:   retriever,
		Rewriter:    rewriter,
		Completer:   completer,
		Links:       newLinkResolver(searchClient, time.Duration(cfg.Search.LinkTTLSec)*time.Second),
		Model:       cfg.Completion.Model,
		SlideWindow: cfg.Pipeline.SlideWindow,
		MinScore:    cfg.Pipeline.MinScore,
		Logger:      logger,
	})

	healthSvc := healthuc.New(searchClient, completer, cachePinger)

	server := chiTransport.NewServer(chatSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys, logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// linkResolver binds the configured link TTL to the search client.
type linkResolver struct {
	client *cortex.Client
	ttl    time.Duration
}

func newLinkResolver(client *cortex.Client, ttl time.Duration) *linkResolver {
	return &linkResolver{client: client, ttl: ttl}
}

func (l *linkResolver) ResolveDocumentLink(ctx context.Context, path string) (string, error) {
	return l.client.ResolveDocumentLink(ctx, path, l.ttl)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
