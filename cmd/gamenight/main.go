package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	gamenight "github.com/WelcomerTeam/Gamenight"
	"github.com/WelcomerTeam/Gamenight/discord"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath   string
		logLevel     string
		logFile      string
		syncCommands bool
	)

	rootCmd := &cobra.Command{
		Use:           "gamenight",
		Short:         "Run the gamenight discord bot",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env is fine, the token may come from the config file.
			_ = godotenv.Load()

			configuration, err := gamenight.LoadConfiguration(configPath)
			if err != nil {
				return err
			}

			if logLevel != "" {
				configuration.Logging.Level = logLevel
			}

			if logFile != "" {
				configuration.Logging.File = logFile
			}

			logger, err := newLogger(configuration.Logging)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, logger, configuration, syncCommands)
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "gamenight.yaml", "path to the configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level override")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "also write logs to this file")
	rootCmd.Flags().BoolVar(&syncCommands, "sync-commands", false, "overwrite the application commands before connecting")

	return rootCmd
}

func newLogger(configuration gamenight.LoggingConfiguration) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(configuration.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", configuration.Level, err)
	}

	var writer io.Writer = os.Stdout
	if !configuration.JSON {
		writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Stamp}
	}

	if configuration.File != "" {
		writer = zerolog.MultiLevelWriter(writer, &lumberjack.Logger{
			Filename:   configuration.File,
			MaxSize:    configuration.MaxSizeMB,
			MaxBackups: configuration.MaxBackups,
			MaxAge:     configuration.MaxAgeDays,
			Compress:   configuration.Compress,
		})
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger(), nil
}

func run(ctx context.Context, logger zerolog.Logger, configuration *gamenight.Configuration, syncCommands bool) error {
	client, err := gamenight.NewClient(logger, configuration, gamenight.EventHandlers{
		OnReady: func(_ context.Context, client *gamenight.Client, event *gamenight.ReadyEvent) error {
			client.Logger.Info().
				Str("user", event.User.Username).
				Int32("shard_id", event.ShardID).
				Int("guilds", len(event.Guilds)).
				Msg("Logged in")

			return nil
		},
		OnReactionAdd: func(_ context.Context, client *gamenight.Client, event *gamenight.ReactionUpdate) error {
			client.Logger.Debug().
				Str("emoji", event.Emoji.Identifier()).
				Str("user_id", event.UserID.String()).
				Str("message_id", event.MessageID.String()).
				Msg("Reaction added")

			return nil
		},
		OnError: func(_ context.Context, client *gamenight.Client, event gamenight.Event, err error) {
			client.Logger.Error().Err(err).Str("event", event.EventType()).Msg("Handler failed")
		},
	})
	if err != nil {
		return err
	}

	if err = client.Commands.Register(pingCommand()); err != nil {
		return err
	}

	if syncCommands {
		if _, err = client.SyncCommands(ctx); err != nil {
			return err
		}
	}

	if address := configuration.Status.Address; address != "" {
		server := gamenight.NewStatusServer(client)

		go func() {
			if err := server.ListenAndServe(ctx, address); err != nil {
				logger.Error().Err(err).Msg("Status server stopped")
			}
		}()
	}

	if err = client.Open(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func pingCommand() gamenight.Command {
	return gamenight.Command{
		Definition: discord.ApplicationCommand{
			Name:        "ping",
			Description: "Check that the bot is alive",
			Type:        discord.ApplicationCommandTypeChatInput,
		},
		Handler: func(ctx context.Context, client *gamenight.Client, event *gamenight.InteractionCreateEvent) error {
			latency := time.Duration(0)
			if sh, ok := client.ShardFor(event.GuildID); ok {
				latency = sh.Latency()
			}

			return client.Respond(ctx, event.Interaction, discord.InteractionResponse{
				Type: discord.InteractionCallbackTypeChannelMessageSource,
				Data: &discord.MessageParams{
					Content: fmt.Sprintf("Pong! Gateway latency is %s.", latency.Round(time.Millisecond)),
					Flags:   discord.MessageFlagEphemeral,
				},
			})
		},
	}
}
