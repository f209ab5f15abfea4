package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gatelog/internal/buildinfo"
	"github.com/dmitrijs2005/gatelog/internal/client/cli"
	"github.com/dmitrijs2005/gatelog/internal/client/config"
	"github.com/dmitrijs2005/gatelog/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gatelog:", err)
		os.Exit(1)
	}
}

func run() error {
	fmt.Println(buildinfo.String())

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}

	// unblock the REPL read on shutdown
	go func() {
		<-ctx.Done()
		_ = os.Stdin.Close()
	}()

	return app.Run(ctx)
}
