package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trading-journal/config"
	"trading-journal/database"
	"trading-journal/logger"
)

var (
	cfgFile string
	envOnly bool
	envFile string

	cfg config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "trading-journal",
	Short: "Trading journal API server and admin tools",
	Long: `trading-journal serves the journal API (playbooks, trade samples and
trades, daily report cards, trade logs and the dashboard widgets) and
carries the admin commands that operate on the same database.

Configuration comes from a YAML file and TJ_* environment variables.
A .env file in the working directory is loaded first when present.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		var err error
		cfg, err = config.Load(cfgFile, envOnly || cfgFile == "")
		if err != nil {
			return err
		}
		log, err = logger.New(cfg.Log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&envOnly, "env-only", false, "ignore --config and read settings from the environment only")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration")
}

// openDB connects and migrates. Callers close the handle.
func openDB() (*gorm.DB, error) {
	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}
