package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"pdroll/internal/amqp"
	"pdroll/internal/backend"
	"pdroll/internal/cli"
	"pdroll/internal/config"
	"pdroll/internal/core"
	applog "pdroll/internal/log"
	"pdroll/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)

	enqueue := flag.Bool("enqueue", false, "publish the advance request to the worker queue instead of running it locally")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pdroll [-enqueue] MM/DD/YYYY")
		fmt.Fprintln(os.Stderr, "Example: pdroll 09/30/2025")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	endMonth, err := core.ParseMonthDate(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid end month %q: expected MM/DD/YYYY (e.g. 09/30/2025)\n", flag.Arg(0))
		os.Exit(1)
	}

	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	if *enqueue {
		enqueueAdvance(ctx, logger, cfg, endMonth)
		return
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer result.Cleanup()
	}
	store := result.Backend

	service := services.NewRollForwardService(store, store, store, store)

	roll, err := service.Advance(ctx, endMonth)
	if errors.Is(err, core.ErrNoForwardProgress) {
		logger.Info("Nothing to do", applog.FieldEndMonth, endMonth.String())
		fmt.Printf("Window already covers %s, nothing to do.\n", endMonth)
		return
	}
	if err != nil {
		logger.Error("Roll-forward failed", applog.FieldError, err, applog.FieldEndMonth, endMonth.String())
		os.Exit(1)
	}

	fmt.Printf("Roll-forward complete: %d month(s) ingested, anchor now %s\n",
		roll.MonthsIngested, roll.Anchor)
	if roll.Clamped {
		fmt.Printf("Note: %d month(s) requested, clamped to latest segment capacity (%d).\n",
			roll.MonthsRequested, core.LatestCapacity)
	}
	fmt.Printf("Window: %d months, older segment %d rows, latest segment %d rows\n",
		len(roll.Window), roll.OlderRows, roll.LatestRows)
	for _, w := range roll.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
}

// enqueueAdvance hands the request to the worker via the request queue.
func enqueueAdvance(ctx context.Context, logger *applog.Logger, cfg *config.Config, endMonth core.Month) {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPResultQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	requestID := fmt.Sprintf("cli-%d", time.Now().UnixNano())
	if err := client.PublishAdvanceRequest(ctx, core.FormatMonthDate(endMonth), requestID); err != nil {
		logger.Error("Failed to publish advance request",
			applog.FieldError, err,
			applog.FieldEndMonth, endMonth.String(),
			applog.FieldRequestID, requestID)
		os.Exit(1)
	}

	fmt.Printf("Advance request for %s enqueued (request id %s).\n", endMonth, requestID)
}
