package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"communityboard/internal/access"
	"communityboard/internal/config"
	"communityboard/internal/database"
	"communityboard/internal/database/migrations"
	"communityboard/internal/logger"
	"communityboard/internal/models"
	"communityboard/internal/repository"
	"communityboard/internal/service"

	"github.com/spf13/cobra"
)

// adminPasswordEnv lets scripts pass the password without a flag.
const adminPasswordEnv = "BOARDCTL_ADMIN_PASSWORD"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect loads the configuration and opens the database. The caller must
// close the returned DB.
func connect() (*database.DB, error) {
	cfg := config.LoadConfig()
	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		return nil, err
	}
	return db, nil
}

var rootCmd = &cobra.Command{
	Use:          "boardctl",
	Short:        "Community board operator tool",
	SilenceUsage: true,
}

// migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		defer db.CloseDB()

		if err := db.RunMigrations(); err != nil {
			return err
		}

		latest, err := migrations.LatestVersion()
		if err != nil {
			return err
		}
		fmt.Printf("Schema is at version %d\n", latest)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the schema matches this binary",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		defer db.CloseDB()

		status, err := db.MigrationStatus()
		if err != nil {
			return err
		}

		fmt.Printf("Applied version: %d\n", status.Applied)
		fmt.Printf("Latest version:  %d\n", status.Latest)
		if err := status.Err(); err != nil {
			return err
		}
		fmt.Println("Schema is up to date")
		return nil
	},
}

// admin command
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv(adminPasswordEnv)
		}

		if email == "" || username == "" {
			return fmt.Errorf("--email and --username are required")
		}
		if password == "" {
			return fmt.Errorf("--password or %s is required", adminPasswordEnv)
		}
		if err := service.ValidatePassword(password); err != nil {
			return err
		}

		db, err := connect()
		if err != nil {
			return err
		}
		defer db.CloseDB()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		user := &models.User{
			Role:        access.RoleAdministrator,
			Email:       email,
			Username:    username,
			DisplayName: username,
			Status:      models.UserStatusActive,
		}
		if err := repository.NewUserRepository(db.DB).CreateUser(ctx, user, password); err != nil {
			return fmt.Errorf("failed to create administrator: %w", err)
		}

		fmt.Printf("Administrator created\n")
		fmt.Printf("User ID:  %s\n", user.UserID)
		fmt.Printf("Email:    %s\n", user.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)

	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)
	adminCreateCmd.Flags().String("email", "", "administrator email")
	adminCreateCmd.Flags().String("username", "", "administrator username")
	adminCreateCmd.Flags().String("password", "", "administrator password (or set "+adminPasswordEnv+")")
}
