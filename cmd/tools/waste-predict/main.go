package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"meal-waste-workers/internal/common/logger"
	"meal-waste-workers/pkg/registry"
)

type cli struct {
	Globals

	Version kong.VersionFlag `help:"Print version and exit."`

	Predict  PredictCmd  `cmd:"" help:"Predict waste and cost for a planned meal."`
	Vocab    VocabCmd    `cmd:"" help:"List the labels accepted for each categorical field."`
	Evaluate EvaluateCmd `cmd:"" help:"Train the model and report held-out accuracy."`

	Activities ActivitiesCmd `cmd:"" help:"List the job types the workers register."`
}

var CLI cli

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("waste-predict"),
		kong.Description("Offline food waste and cost forecasts from historical meal records"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":       "v1.0.0",
			"registry_path": registry.DefaultPath,
		},
	)

	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewStructured(CLI.LogLevel, "console")
	err := ctx.Run(newContext(appCtx, CLI.Globals, os.Stdout, log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
