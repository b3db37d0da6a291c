package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rahul/agentladder/internal/agent"
	"github.com/rahul/agentladder/internal/gateway"
	"github.com/rahul/agentladder/internal/governance"
	"github.com/rahul/agentladder/internal/observability"
	"github.com/rahul/agentladder/internal/store"
)

func newAssistantCmd(root *rootOptions) *cobra.Command {
	var gateways []string
	var live bool
	cmd := &cobra.Command{
		Use:   "assistant [question]",
		Short: "Answer weather questions in natural language (LLM-enhanced)",
		Long:  "Without arguments the assistant reads questions from stdin until quit, exit or bye. With --gateway it serves Telegram and/or Discord chats instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}

			history, err := store.NewHistoryStore(a.cfg.Memory.Path)
			if err != nil {
				return fmt.Errorf("open memory: %w", err)
			}
			defer history.Close()

			assistant := a.newAssistant(history)
			if live {
				if a.cfg.Weather.APIKey == "" {
					return fmt.Errorf("--live needs weather.api_key")
				}
				assistant.Weather = a.weatherClient()
			}

			switch {
			case len(gateways) > 0:
				return a.serveGateways(ctx, assistant, gateways)
			case len(args) > 0:
				answer, err := assistant.Think(ctx, "cli", strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Println(answer)
				return nil
			default:
				return chat(ctx, assistant, os.Stdin, os.Stdout)
			}
		},
	}
	cmd.Flags().StringSliceVar(&gateways, "gateway", nil, "serve chats on telegram and/or discord")
	cmd.Flags().BoolVar(&live, "live", false, "include live OpenWeatherMap conditions in answers")
	return cmd
}

func (a *app) newAssistant(history agent.HistoryStore) *agent.Assistant {
	policy := governance.NewDefaultPolicyEngine(a.cfg.Assistant.SafetyConstraints...)
	assistant := agent.NewAssistant(a.generator, a.prompts, policy, history, agent.AssistantOptions{
		DefaultCity:      a.cfg.Weather.City,
		AllowedDomains:   a.cfg.Assistant.AllowedDomains,
		MinConfidence:    a.cfg.Assistant.MinConfidence,
		MaxHistory:       a.cfg.Assistant.MaxHistory,
		MaxResponseChars: a.cfg.Assistant.MaxResponseChars,
	})
	assistant.Logger, assistant.Metrics = a.logger, a.metrics
	return assistant
}

// chat runs the interactive stdin session.
func chat(ctx context.Context, brain agent.Brain, in io.Reader, out io.Writer) error {
	if observability.IsInteractive() {
		observability.PrintBanner(out, "LLM-ENHANCED WEATHER ASSISTANT")
	}
	fmt.Fprintln(out, "Ask me about weather! (Type 'quit' to exit)")

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nYou: ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "bye":
			fmt.Fprintln(out, "Goodbye! Have a great day!")
			return nil
		}

		answer, err := brain.Think(ctx, "cli", line)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Assistant: %s\n", answer)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (a *app) serveGateways(ctx context.Context, brain agent.Brain, names []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		gw, ok := a.cfg.GetGatewayConfig(name)
		if !ok {
			return fmt.Errorf("gateway %s is not enabled or token is missing", name)
		}
		var m gateway.Messenger
		var err error
		switch name {
		case "telegram":
			m, err = gateway.NewTelegramGateway(gw.Token, brain)
		case "discord":
			m, err = gateway.NewDiscordGateway(gw.Token, brain)
		default:
			err = fmt.Errorf("unknown gateway %s", name)
		}
		if err != nil {
			return err
		}
		okLine.Printf("✅ %s gateway online\n", name)
		g.Go(func() error { return m.Start(ctx) })
	}

	g.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				observability.Heartbeat()
				a.logger.LogHeartbeat()
				log.Println(observability.StatusLine())
			}
		}
	})
	return g.Wait()
}
