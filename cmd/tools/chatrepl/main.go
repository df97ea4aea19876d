package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zhouzirui/z-assistant/backend/internal/config"
	"github.com/zhouzirui/z-assistant/backend/internal/logging"
	"github.com/zhouzirui/z-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/z-assistant/backend/internal/model/persona"
	"github.com/zhouzirui/z-assistant/backend/internal/service/ai"
	chatService "github.com/zhouzirui/z-assistant/backend/internal/service/chat"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		personaID string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:           "chatrepl",
		Short:         "Talk to an assistant persona from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				log.Warn().Err(err).Msg("failed to load .env file")
			}

			cfg, err := config.Load(viper.New())
			if err != nil {
				return err
			}
			// Logs go to stderr at warn so they do not interleave with the conversation.
			if err := logging.Setup(config.LogConfig{Level: "warn", Format: "console"}, os.Stderr); err != nil {
				return err
			}

			client, err := ai.NewClient(cmd.Context(), cfg.AI)
			if err != nil {
				return errors.Wrap(err, "create model client")
			}

			store := persona.NewMemoryStore(persona.Seed())
			responder := ai.NewService(client, ai.Options{
				Model:           cfg.AI.Model,
				MaxOutputTokens: cfg.AI.MaxOutputTokens,
				Temperature:     cfg.AI.Temperature,
				History:         ai.HistoryOptions{ExcludeFailed: cfg.Chat.ExcludeFailedTurns},
			})
			svc := chatService.NewService(store, responder)

			session, err := svc.CreateSession(cmd.Context(), personaID)
			if err != nil {
				return errors.Wrapf(err, "persona %q", personaID)
			}
			conv, err := svc.Conversation(cmd.Context(), session.ID)
			if err != nil {
				return err
			}

			r := &repl{
				in:      os.Stdin,
				out:     os.Stdout,
				conv:    conv,
				timeout: timeout,
				format:  newFormatter(os.Stdout),
			}
			return r.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&personaID, "persona", "p", "qa", "persona id: qa, mental-health or mental-health-sidebar")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-message timeout, 0 waits for the provider")
	return cmd
}

type repl struct {
	in      io.Reader
	out     io.Writer
	conv    *chatService.Conversation
	timeout time.Duration
	format  func(string) string
}

func (r *repl) run(ctx context.Context) error {
	p := r.conv.Persona()
	fmt.Fprintf(r.out, "%s %s\n%s\n", p.Icon, p.Name, p.Title)
	if p.Disclaimer != "" {
		fmt.Fprintln(r.out, r.format(p.Disclaimer))
	}
	fmt.Fprintln(r.out, "Type /clear to reset the conversation, /quit to exit.")
	r.printTurns(r.conv.Transcript())

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			fmt.Fprintln(r.out, "Conversation cleared.")
			r.printTurns(r.conv.Clear())
			continue
		}

		fmt.Fprintln(r.out, "Thinking...")
		result, err := r.submit(ctx, line)
		if err != nil {
			fmt.Fprintln(r.out, "error:", err)
			continue
		}

		if result.OK() {
			fmt.Fprintln(r.out, r.format(result.Text))
		} else {
			fmt.Fprintln(r.out, "!", result.Text)
		}
	}
}

func (r *repl) submit(ctx context.Context, text string) (chatService.Result, error) {
	if r.timeout <= 0 {
		return r.conv.Submit(ctx, text)
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.conv.Submit(callCtx, text)
}

func (r *repl) printTurns(turns []chat.Turn) {
	for _, turn := range turns {
		if turn.Role == chat.RoleUser {
			fmt.Fprintf(r.out, "You: %s\n", turn.Text)
			continue
		}
		fmt.Fprintln(r.out, r.format(turn.Text))
	}
}

// newFormatter renders markdown with glamour on a terminal and passes text through otherwise.
func newFormatter(out *os.File) func(string) string {
	if !isatty.IsTerminal(out.Fd()) {
		return plain
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		log.Warn().Err(err).Msg("glamour unavailable, falling back to plain output")
		return plain
	}
	return func(text string) string {
		styled, err := renderer.Render(text)
		if err != nil {
			return text
		}
		return strings.TrimRight(styled, "\n")
	}
}

func plain(text string) string {
	return text
}
