package main

import (
	"fmt"
	"os"

	"github.com/aleksaelezovic/hexagraph"
	"github.com/aleksaelezovic/hexagraph/internal/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "hexagraph",
		Usage: "embedded quad store with eight sort orders",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load settings from a YAML file",
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "database directory",
				Value:   config.DefaultPath,
				EnvVars: []string{"HEXAGRAPH_DB"},
			},
			&cli.StringFlag{
				Name:    "max-size",
				Usage:   "storage capacity ceiling, e.g. 10MB or 1GiB",
				EnvVars: []string{"HEXAGRAPH_MAX_SIZE"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (trace, debug, info, warn, error)",
			},
		},
		Commands: commands(),
	}
}

// openDB opens the store from the config file, if any, with flags on top
func openDB(c *cli.Context) (*hexagraph.DB, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("db") || c.String("config") == "" {
		cfg.Path = c.String("db")
	}
	if c.IsSet("max-size") {
		size, err := config.ParseSize(c.String("max-size"))
		if err != nil {
			return nil, fmt.Errorf("invalid --max-size: %w", err)
		}
		cfg.MaxSize = size
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	return hexagraph.OpenConfig(cfg)
}

// withDB opens the store around a command action
func withDB(action func(c *cli.Context, db *hexagraph.DB) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		db, err := openDB(c)
		if err != nil {
			return err
		}
		defer db.Close()

		return action(c, db)
	}
}
