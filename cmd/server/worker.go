package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var karmaWorkerCmd = &cobra.Command{
	Use:   "karma-worker",
	Short: "Apply queued karma events from RabbitMQ",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sc, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer sc.Close()

		consumer, err := sc.KarmaConsumer()
		if err != nil {
			return err
		}
		deliveries, err := sc.Rabbit.Consume(sc.Config.KarmaQueue, "karma-worker")
		if err != nil {
			return err
		}
		if err := consumer.Run(ctx, deliveries); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(karmaWorkerCmd)
}
