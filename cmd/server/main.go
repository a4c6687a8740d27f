// Package main provides the tides API HTTP server.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.ngs.io/opsdash-tides/internal/adapter/store"
	"go.ngs.io/opsdash-tides/internal/adapter/store/csv"
	"go.ngs.io/opsdash-tides/internal/adapter/store/fes"
	"go.ngs.io/opsdash-tides/internal/adapter/store/opsdash"
	"go.ngs.io/opsdash-tides/internal/config"
	httpHandler "go.ngs.io/opsdash-tides/internal/http"
	"go.ngs.io/opsdash-tides/internal/usecase"
)

const version = "0.2.0"

func main() {
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("opsdash-tides version %s\n", version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}
	logger := cfg.Logger(os.Stderr)

	logger.Info("starting tide server",
		"version", version,
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
		"fes_dir", cfg.FESDir,
		"default_station", cfg.DefaultStation,
	)

	// Station files: CSV first, then JSON.
	stations := store.Chain{
		csv.NewStationStore(cfg.DataDir),
		opsdash.NewStationStore(cfg.DataDir),
	}
	grids := fes.NewStore(cfg.FESDir, fes.WithLogger(logger))

	if names, err := grids.GetAvailableConstituents(); err != nil || len(names) == 0 {
		logger.Warn("no FES grids available, lat/lon requests limited to nearby stations", "error", err)
	} else {
		logger.Info("FES grids available", "constituents", names)
	}

	predictionUC := usecase.NewPredictionUseCase(stations, grids,
		usecase.WithLogger(logger),
		usecase.WithDefaultStation(cfg.DefaultStation),
		usecase.WithStationRadius(cfg.StationRadiusKm),
	)

	router := httpHandler.SetupRouter(predictionUC, cfg.CORSAllowedOrigins, logger)

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("server listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("opsdash-tides server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	if err := config.Usage(); err != nil {
		fmt.Fprintf(os.Stderr, "usage: %v\n", err)
	}
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                    Health check")
	fmt.Println("  GET /metrics                   Prometheus metrics")
	fmt.Println("  GET /v1/constituents           List tidal constituents")
	fmt.Println("  GET /v1/stations               List configured stations")
	fmt.Println("  GET /v1/tides/predictions      Tide series with highs and lows")
	fmt.Println("  GET /v1/tides/now              Current height, trend and next extreme")
	fmt.Println()
}
