package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/cmd/storyctl"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/config"
)

// main runs one storyctl check and exits non-zero when it fails.
func main() {
	log.SetPrefix("[STORYCTL] ")
	cfg, err := storyctl.ParseConfig()
	if err != nil {
		config.Exitf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = storyctl.Run(ctx, cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if errors.Is(err, storyctl.ErrCheckFailed) {
		stop()
		os.Exit(1)
	}
	if err != nil {
		stop()
		config.Exitf("storyctl: %v", err)
	}
}
