package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/victornm/livescore/internal/config"
	"github.com/victornm/livescore/internal/server"
)

func main() {
	c, err := loadConfig()
	if err != nil {
		log.Fatalf("Load config failed: %v", err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGTERM, os.Interrupt)

	s, err := server.Init(c)
	if err != nil {
		log.Fatalf("Init server failed: %v", err)
	}

	go s.Start()

	<-shutdown
	s.Shutdown()
}

func loadConfig() (server.Config, error) {
	c := server.DefaultConfig()

	// without CONFIG_PATH only defaults and LIVESCORE_* variables apply
	p := os.Getenv("CONFIG_PATH")
	if err := config.Load(p, &c, config.WithEnvPrefix("LIVESCORE")); err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}

	return c, nil
}
