package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/z-assistant/backend/internal/config"
	"github.com/zhouzirui/z-assistant/backend/internal/handler"
	"github.com/zhouzirui/z-assistant/backend/internal/handler/web"
	"github.com/zhouzirui/z-assistant/backend/internal/logging"
	"github.com/zhouzirui/z-assistant/backend/internal/model/persona"
	"github.com/zhouzirui/z-assistant/backend/internal/service/ai"
	"github.com/zhouzirui/z-assistant/backend/internal/service/chat"
)

const (
	shutdownTimeout = 10 * time.Second
	janitorInterval = 5 * time.Minute
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "assistant",
		Short:         "Chat assistant web server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				log.Warn().Err(err).Msg("failed to load .env file")
			}

			cfg, err := config.Load(v)
			if err != nil {
				log.Error().Err(err).Msg("failed to load configuration")
				return err
			}
			if err := logging.Setup(cfg.Log, os.Stderr); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, cfg); err != nil {
				log.Error().Err(err).Msg("server exited")
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("addr", "", "listen address (ADDR)")
	flags.String("provider", "", "model provider: gemini, ark, openai or mock (ASSISTANT_PROVIDER)")
	flags.String("model", "", "model identifier (ASSISTANT_MODEL)")
	flags.String("log-level", "", "log level (LOG_LEVEL)")
	flags.String("log-format", "", "console or json (LOG_FORMAT)")
	for key, flag := range map[string]string{
		"ADDR":               "addr",
		"ASSISTANT_PROVIDER": "provider",
		"ASSISTANT_MODEL":    "model",
		"LOG_LEVEL":          "log-level",
		"LOG_FORMAT":         "log-format",
	} {
		cobra.CheckErr(v.BindPFlag(key, flags.Lookup(flag)))
	}

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	client, err := ai.NewClient(ctx, cfg.AI)
	if err != nil {
		return errors.Wrap(err, "create model client")
	}
	if closer, ok := client.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	personaStore := persona.NewMemoryStore(persona.ApplyLogo(persona.Seed(), cfg.Chat.LogoPath))
	if _, ok := personaStore.FindByID(cfg.Chat.DefaultPersona); !ok {
		return errors.Errorf("unknown ASSISTANT_DEFAULT_PERSONA %q", cfg.Chat.DefaultPersona)
	}

	responder := ai.NewService(client, ai.Options{
		Model:           cfg.AI.Model,
		MaxOutputTokens: cfg.AI.MaxOutputTokens,
		Temperature:     cfg.AI.Temperature,
		History:         ai.HistoryOptions{ExcludeFailed: cfg.Chat.ExcludeFailedTurns},
	})
	chatService := chat.NewService(personaStore, responder)

	router, err := handler.NewRouter(personaStore, chatService, web.Options{
		DefaultPersona: cfg.Chat.DefaultPersona,
		SecureCookies:  cfg.Server.SecureCookies,
	})
	if err != nil {
		return errors.Wrap(err, "build router")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("provider", cfg.AI.Provider).Str("model", cfg.AI.Model).Msg("assistant listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		return chatService.RunJanitor(egCtx, janitorInterval, cfg.Server.SessionIdleTimeout)
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
