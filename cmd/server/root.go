package main

import (
	"context"
	"fmt"
	"os"

	"agora/internal/config"
	"agora/internal/svc"
	"agora/internal/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "agora",
	Short: "Community link aggregator API with voting, karma and notifications",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env file
		if err := godotenv.Load(); err != nil {
			fmt.Fprintln(os.Stderr, "No .env file found, reading configuration from the environment")
		}
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the config, installs the global logger and builds the
// service context.
func bootstrap(ctx context.Context) (*svc.ServiceContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := utils.InitLogger(cfg.AppEnv)
	sc, err := svc.NewServiceContext(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build service context", zap.Error(err))
		_ = log.Sync()
		return nil, err
	}
	return sc, nil
}
