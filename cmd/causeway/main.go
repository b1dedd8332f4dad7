package main

import (
	"fmt"
	"os"

	"github.com/causewayhq/causeway"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env is fine, anything needed can come from the real
	// environment or Secret Manager.
	godotenv.Load()

	app := &cli.App{
		Name:    "causeway",
		Usage:   "Donation and petition platform backend",
		Version: causeway.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Config path",
				Value: "./config.toml",
			},
			&cli.StringFlag{
				Name:  "flags",
				Usage: "Persisted flags path",
				Value: "./flags.json",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the API server",
				Action: Serve,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
