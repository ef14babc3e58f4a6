package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dealerflow/dealerflow/internal/auth"
	"github.com/dealerflow/dealerflow/internal/config"
	"github.com/dealerflow/dealerflow/internal/db"
	"github.com/dealerflow/dealerflow/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "dealerflow",
	Short: "AI sales agent email platform for dealerships",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dealerflow server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level, cfg.Log.Format)
		if err := db.Migrate(cfg.Postgres); err != nil {
			return err
		}
		logger.L.Info("migrations applied")
		return nil
	},
}

var (
	tokenUser      string
	tokenExpiresIn time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an operator JWT for the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is not configured")
		}
		signed, expiresAt, err := auth.GenerateToken(tokenUser, cfg.Auth.JWTSecret, tokenExpiresIn)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "operator", "user id embedded in the token")
	tokenCmd.Flags().DurationVar(&tokenExpiresIn, "expires-in", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
