package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	config "github.com/maheshrc27/velvetqueue/configs"
	"github.com/maheshrc27/velvetqueue/internal/database"
	"github.com/maheshrc27/velvetqueue/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	envFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "velvetqueue",
	Short: "Schedule, approve and publish social media posts",
	Long: `velvetqueue stores posts, walks them through an approval workflow and
publishes them to Instagram, either on demand or from the scheduler loop.

Running without a subcommand starts the server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(envFile); err != nil {
			slog.Debug("no env file loaded", "file", envFile, "err", err)
		}
		cfg = config.LoadConfig()
		setupLogger(cfg.LogLevel)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(cmd.Context(), cfg.PostgresURI)
		if err != nil {
			return err
		}
		defer closeDB(db)
		return database.Migrate(db)
	},
}

var (
	tokenOperator string
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an operator token for the API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.SecretKey == "" {
			return fmt.Errorf("SECRET_KEY must be set to issue tokens")
		}
		token, err := utils.GenerateToken(cfg.SecretKey, tokenOperator, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Print fresh OPERATOR_API_KEY and SECRET_KEY values",
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey, err := utils.GenerateRandomKey(32)
		if err != nil {
			return err
		}
		secret, err := utils.GenerateSecretKey()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OPERATOR_API_KEY=%s\nSECRET_KEY=%s\n", apiKey, secret)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env file loaded before reading configuration")

	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "", "Operator name recorded on approvals (required)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 30*24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("operator")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, keygenCmd)
	rootCmd.SetContext(context.Background())
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
