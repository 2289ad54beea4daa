package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Yates-Labs/medrag/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the QA chain over HTTP",
	Long: `Start an HTTP server exposing:

  GET  /health   - liveness and whether a QA chain is available
  POST /ask      - {"question": "..."} -> {"answer": "..."}
  GET  /metrics  - Prometheus metrics

When the chain cannot be built (missing index, invalid credential) the server
still starts and answers /ask with 503.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "Listen host")
	serveCmd.Flags().Int("port", 8080, "Listen port")
	serveCmd.Flags().Duration("timeout", 0, "Per-request answer timeout (default from config: 60s)")
	serveCmd.Flags().Int("k", 1, "Number of chunks to retrieve as context")
}

func runServe(cmd *cobra.Command, args []string) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := server.NewMetrics(reg)

	var qa server.Answerer
	builder, err := newChainBuilder(ctx)
	if err != nil {
		logger.Warn("Serving without a QA chain", zap.Error(err))
	} else if qaChain, err := builder.Build(ctx); err != nil {
		logger.Warn("Serving without a QA chain", zap.Error(err))
	} else {
		defer qaChain.Close()
		qa = qaChain
	}

	handler := server.NewHandler(qa, cfg.Server.RequestTimeout, metrics, logger)
	return server.Run(ctx, cfg.Addr(), server.NewRouter(handler, reg), logger)
}
