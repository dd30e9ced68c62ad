// Package main is the entry point for the midiretime API server
package main

import (
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"github.com/james-see/midiretime/pkg/api"
	"github.com/james-see/midiretime/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "midiretime-server", ReportTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("config", "err", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
		if err := cfg.Validate(); err != nil {
			logger.Fatal("config", "err", err)
		}
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if err := api.StartServer(cfg, logger); err != nil {
		logger.Fatal("server", "err", err)
	}
}
