package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rahul/agentladder/internal/observability"
)

func main() {
	// Route all log output through the terminal mutex so it never
	// interleaves with banner or status writes.
	log.SetOutput(observability.NewTermWriter())
	log.SetFlags(log.Ltime)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "❌ %v\n", err)
		stop()
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "agentladder",
		Short:         "Weather and dinosaur agents at three levels of autonomy",
		Long:          "agentladder runs fixed automation reports, an LLM-enhanced weather assistant and a ReAct-style weather planner against a local Ollama model.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.json", "config file (.json, .yaml or .toml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "echo structured events to stdout")

	cmd.AddCommand(
		newWeatherCmd(opts),
		newDinoCmd(opts),
		newAssistantCmd(opts),
		newPlanCmd(opts),
		newSetupCmd(opts),
		newDoctorCmd(opts),
	)
	return cmd
}
