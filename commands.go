package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"github.com/serroba/line-docs/internal/collab"
	"github.com/serroba/line-docs/internal/script"
	"github.com/serroba/line-docs/internal/storage"
	"github.com/serroba/line-docs/internal/watch"
)

type MainConfig struct {
	Main *cli.Command
}

type ReplayConfig struct {
	Diff    bool `cli:"name=diff desc='show a line diff for each update'"`
	Color   bool `cli:"name=color desc='color output even when not a terminal'"`
	History int  `cli:"name=history desc='changes retained per document (default 100)'"`

	Replay *cli.Command
}

func MainCommand() *cli.Command {
	cfg := &MainConfig{}

	return cli.NewCommandAt(&cfg.Main, "linedocs").
		WithSynopsis("linedocs command [opts]").
		WithDescription("linedocs drives an in-memory line document store.").
		WithRun(func(cc *cli.Context, args []string) error {
			return linedocsMain(cfg, cc, args)
		}).
		WithSubs(ReplayCommand())
}

func ReplayCommand() *cli.Command {
	cfg := &ReplayConfig{}

	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}

	return cli.NewCommandAt(&cfg.Replay, "replay").
		WithAliases("r").
		WithSynopsis("replay [-diff] [-color] [-history N] script.yaml...").
		WithDescription("replay scripted edits against a fresh store and check expectations").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return replay(cfg, cc, args)
		})
}

func linedocsMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}

	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}

	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}

	return err
}

func replay(cfg *ReplayConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Replay.Parse(cc, args)
	if err != nil {
		cfg.Replay.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}

	if len(args) == 0 {
		return fmt.Errorf("%w: replay requires at least one script", cli.ErrUsage)
	}

	report := script.NewReporter(script.ReporterConfig{
		Out:   cc.Out,
		Color: cfg.Color || isTerminal(cc.Out),
		Diff:  cfg.Diff,
	})

	failed := 0

	for _, path := range args {
		s, err := script.Load(path)
		if err != nil {
			return err
		}

		// Each script starts from an empty store so ids are predictable.
		svc := collab.NewService(collab.ServiceConfig{
			Store:       storage.NewMemoryStore(),
			Hub:         watch.NewHub(watch.HubConfig{}),
			Logger:      slog.Default().With("script", s.Name),
			HistorySize: cfg.History,
		})

		summary, err := script.NewRunner(svc, report).Run(s)
		if err != nil {
			return err
		}

		failed += summary.Failed
	}

	if failed > 0 {
		return cli.ExitCodeErr(1)
	}

	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd())
}
