package main

import (
	"fmt"
	"time"

	leaguejwt "github.com/Black-And-White-Club/bout-league/pkg/jwt"
	"github.com/urfave/cli/v2"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "mint an API token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Required: true, Usage: "operator or competitor id"},
			&cli.StringFlag{Name: "role", Value: string(leaguejwt.RoleAdmin), Usage: "admin or competitor"},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime (defaults to jwt.default_ttl)"},
		},
		Action: func(c *cli.Context) error {
			cfg, _, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("JWT secret is not configured")
			}

			role := leaguejwt.Role(c.String("role"))
			if role != leaguejwt.RoleAdmin && role != leaguejwt.RoleCompetitor {
				return fmt.Errorf("unknown role %q", role)
			}
			ttl := c.Duration("ttl")
			if ttl <= 0 {
				ttl = cfg.JWT.DefaultTTL
			}
			if ttl <= 0 {
				ttl = time.Hour
			}

			token, err := leaguejwt.NewProvider(cfg.JWT.Secret, cfg.JWT.Issuer).GenerateToken(c.String("subject"), role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}
