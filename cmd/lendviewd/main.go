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

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	rootconfig "loanmesh/config"
	"loanmesh/native/oracle"
	"loanmesh/observability/logging"
	telemetry "loanmesh/observability/otel"
	"loanmesh/services/lendview"
	"loanmesh/services/lendview/config"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "services/lendview/config.yaml", "path to lendviewd config")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("LOANMESH_ENV"))
	logger := logging.Setup("lendviewd", env)

	otlpEndpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	otlpHeaders := telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	insecure := true
	if value := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			insecure = parsed
		}
	}
	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "lendviewd",
		Environment: env,
		Endpoint:    otlpEndpoint,
		Insecure:    insecure,
		Headers:     otlpHeaders,
	})
	if err != nil {
		log.Fatalf("init telemetry: %v", err)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	engineCfg, err := rootconfig.Load(cfg.EnginePath)
	if err != nil {
		log.Fatalf("load engine config: %v", err)
	}
	risk, err := engineCfg.RiskTable()
	if err != nil {
		log.Fatalf("build risk table: %v", err)
	}

	source := oracle.NewManualSource()
	now := time.Now()
	for _, feed := range cfg.Feeds {
		if err := source.SetPriceDecimal(feed.Symbol, feed.Price, common.Address{}, now); err != nil {
			log.Fatalf("feed override %s: %v", feed.Symbol, err)
		}
	}
	for _, rate := range cfg.Rates {
		if err := source.SetRateDecimal(rate.Currency, rate.Rate, now); err != nil {
			log.Fatalf("rate override %s: %v", rate.Currency, err)
		}
	}
	adapter := oracle.NewAdapter(source, source, engineCfg.StaleAfter())

	server := lendview.NewServer(logger, adapter, risk, engineCfg.MinPartialRepayUSDCents)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           otelhttp.NewHandler(server.Router(), "lendviewd"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("lendviewd listening", "address", cfg.ListenAddress)
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("forcing server stop", "error", err)
			_ = httpServer.Close()
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve http: %v", err)
		}
	}
}
