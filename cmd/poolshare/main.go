package main

import (
	"embed"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "poolshare",
		Usage: "track proportional ownership and commission in a shared capital pool",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{"POOLSHARE_CONFIG"},
			},
		},
		Before: func(c *cli.Context) error {
			if path := c.String("config"); path != "" {
				return os.Setenv("POOLSHARE_CONFIG", path)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the backup schedule",
				Action: serveCmd,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending PostgreSQL migrations",
				Action: migrateCmd,
			},
			{
				Name:  "backup",
				Usage: "write a JSON and XLSX backup now",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "output directory, defaults to BACKUP_DIR or the working directory",
					},
				},
				Action: backupCmd,
			},
			{
				Name:   "metrics",
				Usage:  "print the portfolio with every investor's metrics as JSON",
				Action: metricsCmd,
			},
		},
	}
}
