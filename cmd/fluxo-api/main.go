package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/fluxohq/fluxo/pkg/cmd"
	"github.com/fluxohq/fluxo/pkg/collaborators/echoai"
	"github.com/fluxohq/fluxo/pkg/collaborators/redisoutbox"
	"github.com/fluxohq/fluxo/pkg/engine"
	"github.com/fluxohq/fluxo/pkg/log"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "fluxo-api",
		Usage:                 "Create, manage, and execute automation flows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the outbound message queue",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Fluxo API")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "fluxo-api", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			collaborators := cmd.Collaborators{AI: echoai.NewClient()}

			if redisURL := command.String("redis-url"); redisURL != "" {
				messenger, err := redisoutbox.NewMessenger(ctx, logger, redisURL)
				if err != nil {
					return err
				}
				defer func() {
					if err := messenger.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close Redis outbox", "error", err)
					}
				}()

				collaborators.Messenger = messenger
			}

			registry := cmd.NewRegistry(logger, collaborators)

			// With the in-memory bus the dispatcher must live in this
			// process, otherwise executions would never run.
			if command.String("event-bus") == "gochannel" {
				executor := engine.NewExecutor(persistence, registry, collaborators.AI, logger)
				dispatcher := engine.NewDispatcher("fluxo-api", executor, eventBus, logger)

				if err := dispatcher.Start(ctx); err != nil {
					return err
				}
			}

			api := NewAPI(
				logger,
				persistence,
				registry,
				eventBus,
			)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
