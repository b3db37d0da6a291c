package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/rahul/agentladder/internal/observability"
	"github.com/rahul/agentladder/internal/ollama"
)

func newSetupCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Start Ollama, pull the configured model and smoke-test it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			done := observability.Track(observability.RoleSetup, "ollama setup")
			defer done()
			return setup(ctx, ollama.NewLifecycle(a.ollama), a.ollama.Model())
		},
	}
}

func setup(ctx context.Context, l *ollama.Lifecycle, model string) error {
	headLine.Println("OLLAMA SETUP")

	version, err := l.Installed(ctx)
	if err != nil {
		failLine.Println("❌ Ollama is not installed or not in PATH")
		fmt.Println("Install it from https://ollama.com/download and run setup again.")
		return err
	}
	okLine.Printf("✅ Ollama is installed: %s\n", version)

	if err := l.Client.CheckRunning(ctx); err != nil {
		warnLine.Printf("⚠️  Ollama is not running on %s, starting it...\n", l.Client.BaseURL())
		if err := l.Start(ctx); err != nil {
			failLine.Println("❌ Ollama failed to start properly")
			return err
		}
	}
	okLine.Printf("✅ Ollama is running on %s\n", l.Client.BaseURL())

	fmt.Printf("Checking model %s (a download may take several minutes)...\n", model)
	pulled, err := l.EnsureModel(ctx, model)
	if err != nil {
		failLine.Printf("❌ %v\n", err)
		return err
	}
	if pulled {
		okLine.Printf("✅ Model %s downloaded successfully\n", model)
	} else {
		okLine.Printf("✅ Model %s is available\n", model)
	}

	reply, err := l.SmokeTest(ctx)
	if err != nil {
		failLine.Printf("❌ Model test failed: %v\n", err)
		return err
	}
	okLine.Printf("✅ Model test successful: %s\n", truncate(reply, 100))
	return nil
}

func newDoctorCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check Ollama, the configured model and API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			headLine.Printf("%s using %s\n", a.cfg.App.Name, a.provider)

			var problems []error
			if err := a.ollama.CheckRunning(ctx); err != nil {
				failLine.Printf("❌ Ollama: %v\n", err)
				problems = append(problems, err)
			} else {
				version, _ := a.ollama.Version(ctx)
				okLine.Printf("✅ Ollama %s is running on %s\n", version, a.ollama.BaseURL())

				ok, available, err := a.ollama.HasModel(ctx, a.ollama.Model())
				switch {
				case err != nil:
					failLine.Printf("❌ Could not list models: %v\n", err)
					problems = append(problems, err)
				case !ok:
					failLine.Printf("❌ Model %s is not available (have: %v). Run: agentladder setup\n", a.ollama.Model(), available)
					problems = append(problems, fmt.Errorf("model %s missing", a.ollama.Model()))
				default:
					okLine.Printf("✅ Model %s is available\n", a.ollama.Model())
				}
			}

			if a.cfg.Weather.APIKey == "" {
				warnLine.Println("⚠️  weather.api_key is not set; weather reports and live planning are unavailable")
			} else {
				okLine.Println("✅ OpenWeatherMap API key configured")
			}

			if overrides := a.prompts.Overrides(); len(overrides) > 0 {
				fmt.Printf("Prompt overrides: %v\n", overrides)
			}
			log.Println(observability.StatusLine())

			return errors.Join(problems...)
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
