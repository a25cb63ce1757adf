// Command league runs the matchmaking engine and its operator tooling.
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "league",
		Usage: "competitive league matchmaking engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"LEAGUE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			sweepCommand(),
			rotateCommand(),
			exportCommand(),
			watchCommand(),
			tokenCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
