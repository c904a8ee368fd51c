package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/5w1tchy/reading-journal/internal/config"
	"github.com/5w1tchy/reading-journal/internal/repository/sqlconnect"
	"github.com/5w1tchy/reading-journal/internal/validate"
)

func newCheckConfigCmd(envFile *string) *cobra.Command {
	var ping bool
	cmd := &cobra.Command{
		Use:   "check-config",
		Short: "Validate configuration and optionally ping Postgres and Redis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			if err := validate.Env(cfg); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, w := range validate.HardeningWarnings(cfg) {
				fmt.Fprintln(out, "warning:", w)
			}
			if ping {
				db, err := sqlconnect.ConnectDB(cmd.Context(), cfg.DatabaseURL)
				if err != nil {
					return fmt.Errorf("postgres: %w", err)
				}
				db.Close()
				rdb, err := newRedis(cfg.Redis)
				if err != nil {
					return err
				}
				defer rdb.Close()
				if err := validate.PingRedis(rdb, 3*time.Second); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
			}
			fmt.Fprintln(out, "config ok")
			return nil
		},
	}
	cmd.Flags().BoolVar(&ping, "ping", false, "also connect to Postgres and Redis")
	return cmd
}
