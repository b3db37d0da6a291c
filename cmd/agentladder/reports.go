package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rahul/agentladder/internal/agent"
	"github.com/rahul/agentladder/internal/dino"
	"github.com/rahul/agentladder/internal/gateway"
)

type scheduleOptions struct {
	every  time.Duration
	notify string
}

func (o *scheduleOptions) bind(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&o.every, "every", 0, "repeat the report on this interval until interrupted")
	cmd.Flags().StringVar(&o.notify, "notify", "", "gateway (telegram or discord) to send scheduled output to")
}

func newWeatherCmd(root *rootOptions) *cobra.Command {
	var city string
	sched := &scheduleOptions{}
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Fetch current weather and write a report (fixed automation)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			if a.cfg.Weather.APIKey == "" {
				return fmt.Errorf("weather.api_key is not set (or export OPENWEATHER_API_KEY)")
			}
			collector := agent.WeatherCollector{
				Client: a.weatherClient(),
				City:   orDefault(city, a.cfg.Weather.City),
			}
			r := agent.NewReporter(collector, a.generator, a.prompts.MustGet(agent.PromptWeatherReporter), a.writer)
			return a.runReporter(cmd.Context(), r, sched)
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city to report on (default from config)")
	sched.bind(cmd)
	return cmd
}

func newDinoCmd(root *rootOptions) *cobra.Command {
	var name, description string
	sched := &scheduleOptions{}
	cmd := &cobra.Command{
		Use:   "dino",
		Short: "Fetch dinosaur facts and write a report (fixed automation)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			collector := agent.DinoCollector{
				Client:      dino.NewClient(a.cfg.Dino.BaseURL, a.cfg.Ollama.Timeout.Std()),
				Name:        orDefault(name, a.cfg.Dino.Name),
				Description: orDefault(description, a.cfg.Dino.Description),
			}
			r := agent.NewReporter(collector, a.generator, a.prompts.MustGet(agent.PromptDinoReporter), a.writer)
			return a.runReporter(cmd.Context(), r, sched)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "dinosaur name (default from config)")
	cmd.Flags().StringVar(&description, "description", "", "description filter (default from config)")
	sched.bind(cmd)
	return cmd
}

func (a *app) runReporter(ctx context.Context, r *agent.Reporter, sched *scheduleOptions) error {
	r.Logger, r.Metrics = a.logger, a.metrics

	if sched.every <= 0 {
		headLine.Printf("%s report using %s\n", r.Name(), a.provider)
		path, err := r.Run(ctx)
		if err != nil {
			return err
		}
		okLine.Printf("✅ Report saved to %s\n", path)
		return nil
	}

	var notifier agent.Messenger
	var chatID string
	if sched.notify != "" {
		gw, id, err := a.notifier(sched.notify)
		if err != nil {
			return err
		}
		notifier, chatID = gw, id
	}

	s := agent.NewScheduler(r, sched.every, notifier, chatID)
	s.Logger = a.logger
	s.Start(ctx)
	return nil
}

// notifier builds a send-only gateway for scheduler output.
func (a *app) notifier(name string) (agent.Messenger, string, error) {
	gw, ok := a.cfg.GetGatewayConfig(name)
	if !ok {
		return nil, "", fmt.Errorf("gateway %s is not enabled or token is missing", name)
	}
	if gw.NotifyChatID == "" {
		return nil, "", fmt.Errorf("gateways.%s.notify_chat_id is not set", name)
	}
	var m agent.Messenger
	var err error
	switch name {
	case "telegram":
		m, err = gateway.NewTelegramGateway(gw.Token, nil)
	case "discord":
		m, err = gateway.NewDiscordGateway(gw.Token, nil)
	default:
		err = fmt.Errorf("unknown gateway %s", name)
	}
	if err != nil {
		return nil, "", err
	}
	return m, gw.NotifyChatID, nil
}
