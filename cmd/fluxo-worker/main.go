// Package main provides the Fluxo execution worker. It consumes execution
// request events from the bus and runs flows to completion.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/fluxohq/fluxo/pkg/cmd"
	"github.com/fluxohq/fluxo/pkg/collaborators/echoai"
	"github.com/fluxohq/fluxo/pkg/collaborators/redisoutbox"
	"github.com/fluxohq/fluxo/pkg/engine"
	"github.com/fluxohq/fluxo/pkg/log"
	"github.com/fluxohq/fluxo/pkg/otelhelper"
	"github.com/fluxohq/fluxo/pkg/scheduler"
)

func main() {
	command := &cli.Command{
		Name:                  "fluxo-worker",
		EnableShellCompletion: true,
		Usage:                 "Start workers to execute flows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus provider (kafka)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the outbound message queue",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.BoolFlag{
				Name:    "scheduler",
				Usage:   "Run the cron scheduler in this worker",
				Sources: cli.EnvVars("SCHEDULER"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OTLP traces",
				Sources: cli.EnvVars("TRACING"),
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

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("fluxo-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing Fluxo Worker")

			eventBus := cmd.NewEventBus(command.String("event-bus"), "fluxo-worker", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
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

			executorOpts := []engine.ExecutorOption{}

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "fluxo-worker")
				if err != nil {
					return err
				}

				executorOpts = append(executorOpts, engine.WithTracer(tracer))
			}

			executor := engine.NewExecutor(persistence, registry, collaborators.AI, logger, executorOpts...)
			dispatcher := engine.NewDispatcher(workerID, executor, eventBus, logger)

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := dispatcher.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to start dispatcher", "error", err)

				return err
			}

			if command.Bool("scheduler") {
				sched := scheduler.NewScheduler(persistence, eventBus, logger)
				if err := sched.Start(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to start scheduler", "error", err)

					return err
				}
			}

			logger.InfoContext(ctx, "Worker running")

			<-ctx.Done()

			logger.Info("Shutting down worker")

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
