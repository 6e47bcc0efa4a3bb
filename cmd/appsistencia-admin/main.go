package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/apiclient"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/batch"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/cards"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/config"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/observability"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/reportcards"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/session"
)

func main() {
	cfg, err := config.Load()
	errAndDie(err)

	logger := observability.NewLogger(cfg.LogLevel)

	storage, err := session.NewFileStorage(cfg.CLISessionFile)
	errAndDie(err)
	store, err := session.NewStore(storage, session.StoreConfig{MaxAge: cfg.Session.MaxAge})
	errAndDie(err)
	errAndDie(store.Hydrate())

	client, err := apiclient.NewClient(apiclient.ClientConfig{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		LoginPath: cfg.API.LoginPath,
		Logger:    logger,
	})
	errAndDie(err)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runnerCfg := batch.RunnerConfig{Delay: cfg.Batch.Delay, Logger: logger}
	cli := commandLine{
		ctx:     ctx,
		out:     os.Stdout,
		store:   store,
		auth:    client,
		boletas: reportcards.NewService(reportcards.FromClient(client), runnerCfg),
		cards:   cards.NewImporter(cards.FromClient(client), runnerCfg),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
