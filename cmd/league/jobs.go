package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	matchmakingservice "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/application"
	matchmakingexport "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/export"
	matchmakinghandlers "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/handlers"
	"github.com/urfave/cli/v2"
)

var asOfFlag = &cli.TimestampFlag{
	Name:   "as-of",
	Usage:  "evaluate as if the current time were this RFC3339 instant",
	Layout: time.RFC3339,
}

func applyAsOf(c *cli.Context, svc *matchmakingservice.MatchmakingService) {
	if t := c.Timestamp("as-of"); t != nil {
		svc.SetClock(matchmakingservice.NewAnchorClock(*t))
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "run one matchmaking sweep and print the result",
		Flags: []cli.Flag{asOfFlag},
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			module, err := rt.newModule(c.Context)
			if err != nil {
				return err
			}
			applyAsOf(c, module.Service)

			result, err := module.Service.RunMatchmakingSweep(c.Context)
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}
			if result.IsFailure() {
				return fmt.Errorf("sweep refused: %w", *result.Failure)
			}
			return printJSON(c.App.Writer, matchmakinghandlers.SweepToV1(*result.Success))
		},
	}
}

func rotateCommand() *cli.Command {
	return &cli.Command{
		Name:  "rotate",
		Usage: "run the weekly rotation now",
		Flags: []cli.Flag{asOfFlag},
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			module, err := rt.newModule(c.Context)
			if err != nil {
				return err
			}
			applyAsOf(c, module.Service)

			result, err := module.Service.RunWeeklyRotation(c.Context)
			if err != nil {
				return fmt.Errorf("rotation failed: %w", err)
			}
			if result.IsFailure() {
				return fmt.Errorf("rotation refused: %w", *result.Failure)
			}
			return printJSON(c.App.Writer, matchmakinghandlers.RotationToV1(*result.Success))
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write active pairings and open disputes to an xlsx workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Value: "pairings.xlsx",
				Usage: "output file",
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			module, err := rt.newModule(c.Context)
			if err != nil {
				return err
			}

			pairings, err := module.Service.ListActivePairings(c.Context)
			if err != nil {
				return fmt.Errorf("failed to list pairings: %w", err)
			}
			if pairings.IsFailure() {
				return *pairings.Failure
			}
			disputes, err := module.Service.ListOpenDisputes(c.Context)
			if err != nil {
				return fmt.Errorf("failed to list disputes: %w", err)
			}
			if disputes.IsFailure() {
				return *disputes.Failure
			}

			out := c.String("out")
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()

			snap := matchmakingexport.Snapshot{
				GeneratedAt: time.Now().UTC(),
				Pairings:    *pairings.Success,
				Disputes:    *disputes.Success,
			}
			if err := matchmakingexport.WriteWorkbook(f, snap); err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "Wrote %d pairings and %d disputes to %s\n", len(snap.Pairings), len(snap.Disputes), out)
			return nil
		},
	}
}
