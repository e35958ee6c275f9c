// Package cmd provides common initialization for the command-line
// binaries: persistence, event bus, and action registry construction.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/fluxohq/fluxo/pkg/channels/gochannel"
	"github.com/fluxohq/fluxo/pkg/channels/kafka"
	"github.com/fluxohq/fluxo/pkg/eventbus"
)

// NewEventBus builds an event bus for the given provider. The gochannel
// provider is in-memory: the API and the dispatcher must share the same
// process (and the same bus instance) for events to flow. The kafka provider
// reads its broker list from KAFKA_BROKERS.
func NewEventBus(provider, serviceName string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		brokers := strings.Split(os.Getenv("KAFKA_BROKERS"), ",")
		if brokers[0] == "" {
			brokers = nil
		}

		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), brokers, serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "gochannel", "":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create GoChannel pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
