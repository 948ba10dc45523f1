package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aiwolfdial/turandot/core"
	"github.com/aiwolfdial/turandot/llm"
	"github.com/aiwolfdial/turandot/model"
	"github.com/aiwolfdial/turandot/service"
	"github.com/aiwolfdial/turandot/store"
	"github.com/aiwolfdial/turandot/util"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version  string
	revision string
	build    string
)

var (
	configPath   string
	config       *model.Config
	serveDuring  bool
	replayHidden bool
	tokenSubject string
	tokenTTL     time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "turandot",
	Short:        "A werewolf game played and narrated by LLM agents",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn(".envファイルの読み込みに失敗しました", "error", err)
		}
		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		config = loaded
		setupLogger(*config)
		return nil
	},
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the configured number of games",
	RunE:  runPlay,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the endpoint credentials with a tool-call round trip",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if _, err := connect(ctx, cmd); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Connection OK.")
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored games to spectators",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		st, err := store.Open(config.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		return core.NewServer(*config, st, nil).Run(ctx)
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay <game-id>",
	Short: "Print a stored game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(config.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		records, err := st.EventsByGame(cmd.Context(), args[0], replayHidden)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("%w: %s", store.ErrGameNotFound, args[0])
		}
		narrator := service.NewConsoleNarrator(*config, cmd.OutOrStdout(), nil)
		for _, record := range records {
			narrator.Narrate(cmd.Context(), record.Event())
		}
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a spectator token",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := util.NewReceiverToken(config.Server.Authentication.Secret, tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config/default.yml", "configuration file")
	playCmd.Flags().BoolVar(&serveDuring, "serve", false, "serve the live feed while playing")
	replayCmd.Flags().BoolVar(&replayHidden, "private", false, "include night actions and whispers")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "spectator", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	rootCmd.AddCommand(playCmd, verifyCmd, serveCmd, replayCmd, tokenCmd)
}

func main() {
	core.SetVersion(version, revision, build)
	rootCmd.Version = core.Version.String()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := connect(ctx, cmd)
	if err != nil {
		return err
	}
	responder := service.NewLLMResponder(client, *config)
	runner, err := core.NewRunner(*config, responder)
	if err != nil {
		return err
	}
	defer runner.Close()
	runner.SetProfileDecider(client)
	if config.Narrator.Enable {
		narrator := service.NewConsoleNarrator(*config, cmd.OutOrStdout(), client)
		responder.SetDeltaHandler(narrator.StreamDelta)
		runner.SetNarrator(narrator)
	}

	serverDone := make(chan error, 1)
	if serveDuring {
		serverCtx, cancel := context.WithCancel(ctx)
		defer func() {
			cancel()
			<-serverDone
		}()
		server := core.NewServer(*config, runner.Store(), runner.RealtimeBroadcaster())
		go func() { serverDone <- server.Run(serverCtx) }()
	}

	results, err := runner.Run(ctx)
	for i, winSide := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "Game %d: %s\n", i+1, winSide)
	}
	if errors.Is(err, context.Canceled) {
		slog.Warn("中断されました")
		return nil
	}
	return err
}

func connect(ctx context.Context, cmd *cobra.Command) (*llm.Client, error) {
	options := llm.OptionsFromConfig(*config)
	credentialStore := llm.NewCredentialStore(config.LLM.CredentialPath, cmd.InOrStdin(), cmd.OutOrStdout())
	credentials, err := credentialStore.Ensure(ctx, llm.NewVerifier(options))
	if err != nil {
		return nil, err
	}
	slog.Info("接続を確認しました", "model", credentials.Model)
	return llm.NewClient(credentials, options), nil
}

// loadConfig falls back to the defaults when the default path is absent.
func loadConfig(cmd *cobra.Command) (*model.Config, error) {
	loaded, err := model.LoadFromPath(configPath)
	if err != nil {
		if cmd.Flags().Changed("config") || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		defaults := model.DefaultConfig()
		loaded = &defaults
	}
	if loaded.Server.Authentication.Secret == "" {
		loaded.Server.Authentication.Secret = os.Getenv("SECRET_KEY")
	}
	return loaded, nil
}

func setupLogger(config model.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(config.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if config.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, options)
	} else {
		handler = slog.NewTextHandler(os.Stderr, options)
	}
	slog.SetDefault(slog.New(handler))
}
