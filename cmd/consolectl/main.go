package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/fatih/color"

	"github.com/noah-isme/content-console/internal/cli"
	"github.com/noah-isme/content-console/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.New(cfg.Console).ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(color.Error, color.RedString("error: %v", err))
		stop()
		os.Exit(1)
	}
}
