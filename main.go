package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/swayamsankar/intern-app/internal/applicant"
	"github.com/swayamsankar/intern-app/internal/config"
	"github.com/swayamsankar/intern-app/internal/db"
	"github.com/swayamsankar/intern-app/internal/events"
	"github.com/swayamsankar/intern-app/internal/logging"
	"github.com/swayamsankar/intern-app/internal/mcptools"
	"github.com/swayamsankar/intern-app/internal/metrics"
	"github.com/swayamsankar/intern-app/internal/ratelimit"
	"github.com/swayamsankar/intern-app/internal/view"
	"github.com/swayamsankar/intern-app/internal/webserver"
)

const version = "1.0.0"

//go:embed frontend/static
var frontendFS embed.FS

func main() {
	configPath := pflag.String("config", "", "path to a config file (yaml, json or toml)")
	mcpMode := pflag.Bool("mcp", false, "serve MCP tools over stdio instead of HTTP")
	apiURL := pflag.String("api-url", "", "in --mcp mode, read from this running server instead of the database")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *mcpMode {
		// stdout carries the MCP protocol.
		if cfg.Log.Output != "file" {
			cfg.Log.Output = "stderr"
		}
	}
	log, err := logging.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *mcpMode {
		err = runMCP(cfg, log, *apiURL)
	} else {
		err = runHTTP(cfg, log)
	}
	if err != nil {
		log.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func runHTTP(cfg *config.Config, log *slog.Logger) error {
	staticFS, err := fs.Sub(frontendFS, "frontend/static")
	if err != nil {
		return fmt.Errorf("failed to load embedded frontend: %w", err)
	}

	d, err := db.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close(d)

	m := metrics.New()
	broker := events.NewBroker()
	publishers := events.Fanout{broker}
	if cfg.RabbitMQ.URL != "" {
		amqpPub, err := events.DialAMQP(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			return err
		}
		defer amqpPub.Close()
		publishers = append(publishers, amqpPub)
		log.Info("publishing applicant events to rabbitmq", "queue", cfg.RabbitMQ.Queue)
	}

	svc := applicant.NewService(d,
		applicant.WithPublisher(publishers),
		applicant.WithMetrics(m),
		applicant.WithLogger(log),
	)

	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Submissions, cfg.RateLimit.Window)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Submissions, cfg.RateLimit.Window, "intern-app:submit",
			ratelimit.WithLogger(log))
		log.Info("rate limiting submissions through redis", "addr", cfg.Redis.Addr)
	}

	proxies, err := ratelimit.NewIPResolver(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return err
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		return err
	}

	srv := webserver.New(webserver.Options{
		Service:        svc,
		Broker:         broker,
		Renderer:       renderer,
		Limiter:        limiter,
		Proxies:        proxies,
		Metrics:        m,
		Static:         staticFS,
		Logger:         log,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, cfg.Addr(), cfg.HTTP.ShutdownTimeout)
}

// runMCP serves the tools over stdio. When a server is already running on
// the configured port (or --api-url is given) the tools read through its
// API; otherwise they open the database directly.
func runMCP(cfg *config.Config, log *slog.Logger, apiURL string) error {
	var dir mcptools.Directory

	if apiURL == "" {
		local := "http://localhost:" + strconv.Itoa(cfg.HTTP.Port)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if webserver.NewClient(local).Healthy(ctx) {
			apiURL = local
		}
		cancel()
	}

	if apiURL != "" {
		log.Info("mcp tools reading from running server", "url", apiURL)
		dir = webserver.NewClient(apiURL)
	} else {
		d, err := db.Open(cfg.Database, log)
		if err != nil {
			return err
		}
		defer db.Close(d)
		dir = mcptools.Local(applicant.NewService(d, applicant.WithLogger(log)))
	}

	return server.ServeStdio(mcptools.NewServer(dir, version))
}
