package commands

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"

	"github.com/gartstein/vcpms/internal/portfolio/config"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/spf13/cobra"
)

var (
	eventsGroup string
	eventTypes  []string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print lifecycle events as they are published",
	Long: `Follow the lifecycle event topic and print every event as one JSON line.
Stops on interrupt.

Examples:
  vcpmsctl events
  vcpmsctl events --type company_created --type company_deleted`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if len(cfg.KafkaBrokers) == 0 {
			return errors.New("no KAFKA_BROKERS configured")
		}
		logger, err := config.NewLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		wanted := make(map[events.EventType]bool, len(eventTypes))
		for _, t := range eventTypes {
			wanted[events.EventType(t)] = true
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		consumer := events.NewConsumer(cfg.KafkaBrokers, eventsGroup, cfg.Topic, func(_ context.Context, ev events.Event) error {
			if len(wanted) > 0 && !wanted[ev.Type] {
				return nil
			}
			return enc.Encode(ev)
		}, logger)
		defer consumer.Close()
		return consumer.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().StringVar(&eventsGroup, "group", "vcpmsctl", "Kafka consumer group")
	eventsCmd.Flags().StringSliceVar(&eventTypes, "type", nil, "Only print events of this type (repeatable)")
}
