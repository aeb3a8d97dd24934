package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"portfolio-api/internal/auth"
	"portfolio-api/internal/content"
	"portfolio-api/internal/model"
	"portfolio-api/internal/store"
	"portfolio-api/migrations"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back the database schema",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(migrations.Up), string(migrations.Down)},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for migrate")
		}

		direction := migrations.Up
		if len(args) == 1 {
			direction = migrations.Direction(args[0])
		}

		version, dirty, err := migrations.Apply(cfg.DatabaseURL, direction)
		if err != nil {
			return err
		}
		logger.Info("migration complete", "direction", direction, "version", version, "dirty", dirty)
		return nil
	},
}

var seedClear bool

var seedProjectsCmd = &cobra.Command{
	Use:   "seed-projects",
	Short: "Insert or update the default portfolio projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		result, err := content.Seed(cmd.Context(), st, content.SeedProjects, seedClear, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Done. created=%d updated=%d\n", result.Created, result.Updated)
		return nil
	},
}

var (
	adminUsername string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Register an operator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimSpace(adminUsername)
		if username == "" || adminPassword == "" {
			return errors.New("--username and --password are required")
		}
		if len(adminPassword) < 8 {
			return errors.New("password must be at least 8 characters")
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		hash, err := auth.HashPassword(adminPassword)
		if err != nil {
			return err
		}
		admin := &model.Admin{Username: username, PasswordHash: hash}
		if err := st.CreateAdmin(cmd.Context(), admin); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return fmt.Errorf("admin %q already exists", username)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", admin.Username, admin.ID)
		return nil
	},
}

func init() {
	seedProjectsCmd.Flags().BoolVar(&seedClear, "clear", false, "delete all existing projects before seeding")

	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "operator username")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "operator password")
}
