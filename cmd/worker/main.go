package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance/internal/config"
	"attendance/internal/pipeline"
	"attendance/internal/queue"
	"attendance/internal/reconcile"
	"attendance/internal/roster"
	"attendance/internal/store"
	"attendance/internal/zoomclient"
)

// Worker consumes run requests and executes the reconciliation pipeline.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:runs")
	}

	telemetry := zoomclient.New(cfg.ZoomBaseURL, cfg.ZoomAccountID, cfg.ZoomClientID, cfg.ZoomClientSecret, cfg.ZoomSkip)
	if cfg.ZoomSkip {
		log.Println("ZOOM_SKIP set, telemetry calls return canned data")
	}

	repo := roster.NewRepository(db.Client)
	classifier := reconcile.NewNameMarkerClassifier(cfg.HostMarkers)
	loc := cfg.Location()

	svc := pipeline.NewService(telemetry, repo, classifier, loc, pipeline.Policy{
		ConservativeGap:  time.Duration(cfg.GapConservativeMin) * time.Minute,
		LenientGap:       time.Duration(cfg.GapLenientMin) * time.Minute,
		Tolerance:        time.Duration(cfg.ToleranceMin) * time.Minute,
		MinFraction:      cfg.MinPresenceFraction,
		LookbackDays:     cfg.LookbackDays,
		FetchConcurrency: cfg.FetchConcurrency,
		HostAccounts:     cfg.HostAccounts,
		Period:           cfg.AcademicPeriod,
	})

	runs, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for run requests...")
	for req := range runs {
		date, err := time.ParseInLocation("2006-01-02", req.Date, loc)
		if err != nil {
			log.Printf("run %s: bad date %q: %v", req.RunID, req.Date, err)
			continue
		}

		log.Printf("run %s: reconciling %s", req.RunID, req.Date)
		if err := svc.Run(ctx, date); err != nil {
			log.Printf("run %s failed: %v", req.RunID, err)
			continue
		}
		log.Printf("run %s completed", req.RunID)
	}

	log.Println("worker stopped")
}
