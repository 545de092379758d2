package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"

	"mturk-tools/internal/bootstrap"
	"mturk-tools/internal/notify"
	"mturk-tools/internal/shared/config"
	"mturk-tools/internal/shared/metrics"
)

const (
	defaultVisibilitySeconds  = 60
	defaultConcurrency        = 4
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()
	queueURL := flag.String("queue", cfg.NotifyQueueURL, "SQS queue receiving MTurk notifications")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address, e.g. :9090")
	flag.Parse()

	if strings.TrimSpace(*queueURL) == "" {
		log.Fatal("MTURK_NOTIFY_QUEUE_URL or -queue is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSProfile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	app, err := bootstrap.Build(ctx, cfg, bootstrap.ModeCLI)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	if *metricsAddr != "" {
		go serveMetrics(ctx, *metricsAddr)
	}

	recorder := &notify.Recorder{Repo: app.Repo, Out: os.Stdout}
	consumer := &notify.Consumer{
		Client:            sqs.NewFromConfig(awsCfg),
		QueueURL:          *queueURL,
		Handle:            recorder.Handle,
		Concurrency:       envInt("WATCH_CONCURRENCY", defaultConcurrency),
		VisibilitySeconds: int32(envInt("WATCH_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)),
		ShutdownTimeout:   time.Duration(envInt("WATCH_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second,
	}
	if err := consumer.Run(ctx); err != nil {
		log.Fatalf("watch: %v", err)
	}
}

func serveMetrics(ctx context.Context, addr string) {
	r := gin.New()
	r.GET("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("metrics server: %v", err)
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	return val
}
