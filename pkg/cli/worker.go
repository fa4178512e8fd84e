package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/mchmarny/genrelay/pkg/metrics"
	"github.com/mchmarny/genrelay/pkg/queue"
	"github.com/mchmarny/genrelay/pkg/worker"
	"github.com/urfave/cli/v3"
)

const (
	flagMetricsPort    = "metrics-port"
	metricsPortDefault = 9090
)

func workerCommand() *cli.Command {
	return &cli.Command{
		Name:      "worker",
		Usage:     "Polls a stage queue and processes its messages",
		ArgsUsage: "<genre|meta>",
		Action:    cmdWorker,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  flagMetricsPort,
				Usage: "Port for the /metrics endpoint (0 disables it)",
				Value: metricsPortDefault,
			},
		},
	}
}

func lambdaCommand() *cli.Command {
	return &cli.Command{
		Name:      "lambda",
		Usage:     "Runs a stage as an AWS Lambda SQS event handler",
		ArgsUsage: "<genre|meta>",
		Action:    cmdLambda,
	}
}

func cmdWorker(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	kind := cmd.Args().First()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	process, queueURL, closer, err := cfg.processor(ctx, kind)
	if err != nil {
		return err
	}
	defer closer()

	api, err := cfg.sqsClient(ctx)
	if err != nil {
		return err
	}

	if port := cmd.Int(flagMetricsPort); port > 0 && cfg.Config.Metrics.Enabled {
		go serveMetrics(ctx, port)
	}

	w := cfg.Config.Worker
	p := &worker.Poller{
		Consumer: queue.NewSQSConsumer(api, queueURL, w.MaxMessages, w.WaitSeconds, w.VisibilitySeconds),
		Process:  process,
		Name:     kind,
	}
	slog.Info("worker starting", "kind", kind, "queue", queueURL)
	return p.Run(ctx)
}

func cmdLambda(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	kind := cmd.Args().First()

	process, _, closer, err := cfg.processor(ctx, kind)
	if err != nil {
		return err
	}
	defer closer()

	slog.Info("lambda handler starting", "kind", kind)
	lambda.Start(worker.LambdaHandler(process))
	return nil
}

func serveMetrics(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())
	s := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: serverTimeoutSeconds * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	slog.Info("metrics server started", "port", port)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics server failed", "error", err)
	}
}
