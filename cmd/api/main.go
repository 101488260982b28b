package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account-linker/internal/config"
	"account-linker/internal/db"
	"account-linker/internal/directory"
	apihttp "account-linker/internal/http"
	"account-linker/internal/repository"
	"account-linker/internal/rules"
	"account-linker/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	dir, closeDir, err := newDirectory(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("directory init", zap.Error(err))
	}
	defer closeDir()

	var linkLock service.LinkLock
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-process link lock", zap.Error(err))
		} else {
			linkLock = service.NewRedisLinkLock(redisClient, cfg.LinkLockTTL)
		}
		cancel()
	}
	if linkLock == nil {
		linkLock = service.NewMemoryLinkLock(cfg.LinkLockTTL)
	}

	linkSvc := service.NewLinkService(logger, dir)
	chain := rules.NewChain(logger,
		rules.NewGuardedRule(rules.NewLinkRule(linkSvc), linkSvc, linkLock),
		rules.NewSAMLMappingRule(cfg.SAMLTestClientID),
	)
	tokens := service.NewWebhookTokenService(cfg.WebhookSecret, cfg.WebhookIssuer, 0)

	rulesHandler := apihttp.NewRulesHandler(logger, chain, linkSvc)
	router := apihttp.NewRouter(logger, rulesHandler, tokens)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("directory_backend", cfg.DirectoryBackend),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newDirectory construye el backend de directorio configurado y su función de cierre.
func newDirectory(ctx context.Context, cfg *config.Config, logger *zap.Logger) (directory.Directory, func(), error) {
	switch cfg.DirectoryBackend {
	case config.DirectoryBackendPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repository.NewPgDirectory(pool), pool.Close, nil

	case config.DirectoryBackendHTTP:
		if cfg.DirectoryBaseURL == "" {
			return nil, nil, errors.New("DIRECTORY_BASE_URL is required for the http directory")
		}
		httpClient := &http.Client{Timeout: cfg.DirectoryTimeout}
		if cfg.DirectoryAPIToken == "" {
			var err error
			httpClient, err = directory.NewClientCredentialsHTTPClient(ctx, directory.ClientCredentials{
				BaseURL:      cfg.DirectoryBaseURL,
				ClientID:     cfg.DirectoryClientID,
				ClientSecret: cfg.DirectoryClientSecret,
				Audience:     cfg.DirectoryAudience,
				Timeout:      cfg.DirectoryTimeout,
			})
			if err != nil {
				return nil, nil, err
			}
		}
		return directory.NewHTTPClient(cfg.DirectoryBaseURL, cfg.DirectoryAPIToken, httpClient, logger), func() {}, nil

	default:
		return nil, nil, errors.New("unknown DIRECTORY_BACKEND " + cfg.DirectoryBackend)
	}
}
