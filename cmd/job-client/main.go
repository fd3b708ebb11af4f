package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/jobqueue/internal/client"
	"github.com/cuongbtq/jobqueue/internal/config"
	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
	"github.com/cuongbtq/jobqueue/internal/jobs/poller"
	"github.com/cuongbtq/jobqueue/shared/logger"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("JOB_CLIENT_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/job-client/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	x := flag.Float64("x", 0, "First number to add")
	y := flag.Float64("y", 0, "Second number to add")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateClientConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := logger.New(&logger.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cfg.Logging.Output,
		EnableSource: cfg.Logging.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.Poller.BaseURL, &http.Client{Timeout: cfg.Poller.HTTPTimeout}, appLogger.Logger)

	fmt.Printf("Submitting addition job: %g + %g\n", *x, *y)
	jobID, err := api.Submit(ctx, *x, *y)
	if err != nil {
		return fmt.Errorf("error communicating with API: %w", err)
	}
	fmt.Printf("Job submitted with ID: %s\n", jobID)

	fmt.Println("Polling for results...")
	p := poller.NewPoller(api, appLogger.Logger)
	job, err := p.AwaitResult(ctx, jobID, cfg.Poller.Interval, cfg.Poller.MaxAttempts)

	var failed *domain.JobFailedError
	switch {
	case errors.As(err, &failed):
		return fmt.Errorf("job failed: %s", failed.Message)
	case errors.Is(err, domain.ErrPollTimeout):
		return fmt.Errorf("job %s did not complete within %d attempts", jobID, cfg.Poller.MaxAttempts)
	case err != nil:
		return err
	case job.Result == nil:
		return fmt.Errorf("job %s completed without a result", jobID)
	}

	fmt.Println()
	fmt.Println("Job completed successfully!")
	fmt.Printf("Input: x=%g y=%g\n", job.Input["x"], job.Input["y"])
	fmt.Printf("Result: %g\n", *job.Result)
	return nil
}
