package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/summit-insights/internal/api"
	"github.com/ignite/summit-insights/internal/auth"
	"github.com/ignite/summit-insights/internal/config"
	"github.com/ignite/summit-insights/internal/dashboard"
	"github.com/ignite/summit-insights/internal/pkg/distlock"
	"github.com/ignite/summit-insights/internal/pkg/httpretry"
	"github.com/ignite/summit-insights/internal/pkg/logger"
	"github.com/ignite/summit-insights/internal/source"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %v\n"+
			"  Hint: run 'lsof -i :<port>' to find the blocking process", addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config check FAILED: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())

	addr := cfg.Server.Addr()
	if err := checkPortAvailable(addr); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	health := api.NewHealthChecker()

	// Registration export source, optionally behind a cache
	src, err := buildSource(ctx, cfg.Source)
	if err != nil {
		log.Fatalf("Failed to initialize registration source: %v", err)
	}
	var cacheClient *redis.Client
	switch cfg.Cache.Type {
	case "memory":
		src = source.NewCachedSource(src, source.NewMemoryCache(), cfg.Cache.TTL())
		log.Printf("[source] in-memory export cache, ttl %s", cfg.Cache.TTL())
	case "redis":
		cacheClient, err = connectRedis(ctx, cfg.Cache.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect export cache: %v", err)
		}
		defer cacheClient.Close()
		health.AddRedis("cache", cacheClient)
		cached := source.NewCachedSource(src, source.NewRedisCache(cacheClient, cfg.Cache.KeyPrefix), cfg.Cache.TTL())
		if wait := cfg.Cache.FillLockWait(); wait > 0 {
			cached.SetFillLock(distlock.Factory(cacheClient, cfg.Server.RequestTimeout()), wait)
		}
		src = cached
		log.Printf("[source] Redis export cache, ttl %s", cfg.Cache.TTL())
	default:
		log.Println("[source] export cache disabled")
	}
	health.AddSource(src)

	// Failed-login store
	var store auth.AttemptStore
	switch cfg.Auth.Store {
	case "redis":
		client := cacheClient
		if client == nil || cfg.Auth.RedisURL != cfg.Cache.RedisURL {
			client, err = connectRedis(ctx, cfg.Auth.RedisURL)
			if err != nil {
				log.Fatalf("Failed to connect attempt store: %v", err)
			}
			defer client.Close()
			health.AddRedis("attempts", client)
		}
		store = auth.NewRedisAttemptStore(client, cfg.Cache.KeyPrefix+"login:")
		log.Println("[auth] failed logins tracked in Redis")
	default:
		mem := auth.NewMemoryAttemptStore()
		go sweepAttempts(ctx, mem, cfg.Auth.Window())
		store = mem
		log.Println("[auth] failed logins tracked in memory")
	}

	gate, err := auth.NewGate(auth.Options{
		Password:      cfg.Auth.Password,
		SessionSecret: cfg.Auth.SessionSecret,
		CookieName:    cfg.Auth.CookieName,
		SessionTTL:    cfg.Auth.SessionTTL(),
		SecureCookie:  cfg.Auth.SecureCookie,
		Limiter:       auth.NewLimiter(store, cfg.Auth.MaxAttempts, cfg.Auth.Window()),
	})
	if err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}
	log.Printf("[auth] lockout after %d failures in %s", cfg.Auth.MaxAttempts, cfg.Auth.Window())

	loc, err := cfg.Event.Location()
	if err != nil {
		log.Fatalf("Failed to load event timezone: %v", err)
	}
	svc := dashboard.NewService(src, dashboard.WithLocation(loc))

	server := api.NewServer(cfg.Server, svc, gate, health)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s (source %s, weeks in %s)", addr, src.Name(), loc)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

func buildSource(ctx context.Context, cfg config.SourceConfig) (source.Source, error) {
	switch cfg.Type {
	case "s3":
		return source.NewS3Source(ctx, source.S3Options{
			Bucket:          cfg.Bucket,
			Key:             cfg.Key,
			Region:          cfg.Region,
			Profile:         cfg.AWSProfile,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Endpoint:        cfg.Endpoint,
		})
	case "url":
		client := httpretry.New(&http.Client{Timeout: 30 * time.Second}, httpretry.Options{MaxRetries: cfg.MaxRetries})
		return source.NewHTTPSource(client, cfg.URL, cfg.URLToken)
	default:
		log.Printf("[source] reading registrations from %s", cfg.Path)
		return source.NewFileSource(cfg.Path), nil
	}
}

func connectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func sweepAttempts(ctx context.Context, store *auth.MemoryAttemptStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				logger.Debug("swept expired login windows", "count", n)
			}
		}
	}
}
