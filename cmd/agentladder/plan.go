package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rahul/agentladder/internal/agent"
	"github.com/rahul/agentladder/internal/planner"
	"github.com/rahul/agentladder/internal/store"
	"github.com/rahul/agentladder/internal/weather"
)

var exampleTasks = []string{
	"Plan a weekend outdoor activity based on weather conditions",
	"Create a travel itinerary considering weather forecasts",
	"Optimize my daily schedule based on weather patterns",
}

func newPlanCmd(root *rootOptions) *cobra.Command {
	var save, writeReport, list bool
	cmd := &cobra.Command{
		Use:   "plan [task]",
		Short: "Plan a weather-dependent task with the bounded reason/act loop (ReAct)",
		Long:  "Without a task the planner runs three example tasks (outdoor, travel and daily).",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}

			if err := checkArchive(a.cfg.Memory.Path, save, list); err != nil {
				return err
			}

			var archive *store.HistoryStore
			if save || list {
				archive, err = store.NewHistoryStore(a.cfg.Memory.Path)
				if err != nil {
					return fmt.Errorf("open memory: %w", err)
				}
				defer archive.Close()
			}
			if list {
				return listPlans(archive)
			}

			tasks := exampleTasks
			if len(args) > 0 {
				tasks = []string{strings.Join(args, " ")}
			}

			engine := a.newEngine()
			failed := 0
			for _, task := range tasks {
				if ctx.Err() != nil {
					break
				}
				if !a.runPlan(ctx, engine, task, archive, writeReport) {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d plans did not complete", failed, len(tasks))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "archive finished sessions in the memory database")
	cmd.Flags().BoolVar(&writeReport, "report", false, "write each plan summary to the output directory")
	cmd.Flags().BoolVar(&list, "list", false, "list archived plans and exit")
	return cmd
}

func (a *app) newEngine() *planner.Engine {
	var src weather.Source = weather.Mock{}
	windUnit := "km/h"
	if a.cfg.Planner.LiveWeather && a.cfg.Weather.APIKey != "" {
		src, windUnit = a.weatherClient(), "m/s"
	}

	return planner.NewEngine(planner.Config{
		MaxIterations:       a.cfg.Planner.MaxIterations,
		ConfidenceThreshold: a.cfg.Planner.ConfidenceThreshold,
		DefaultCity:         a.cfg.Weather.City,
		AnalystPrompt:       a.prompts.MustGet(agent.PromptAnalyst),
		ReasoningPrompt:     a.prompts.MustGet(agent.PromptReasoning),
	}, a.generator, planner.DefaultRegistry(src, a.cfg.Weather.City, windUnit), a.logger, a.metrics)
}

// runPlan runs one session and prints its outcome. It reports whether the
// plan completed.
func (a *app) runPlan(ctx context.Context, engine *planner.Engine, task string, archive *store.HistoryStore, writeReport bool) bool {
	rule := strings.Repeat("=", 60)
	headLine.Printf("\n%s\nPlanning Task: %s\n%s\n", rule, task, rule)

	s := engine.Run(ctx, task)
	summary := planner.Summary(s.Plan)
	fmt.Println(summary)

	if len(s.Degraded) > 0 {
		warnLine.Printf("⚠️  %d fallback(s) used during planning\n", len(s.Degraded))
	}

	if archive != nil {
		rec, err := store.NewPlanRecord(s.ID, s.Task, string(s.Plan.Status), s.Plan.Confidence, s.Plan, s.History)
		if err == nil {
			_, err = archive.SavePlan(rec)
		}
		if err != nil {
			failLine.Printf("❌ Could not archive plan: %v\n", err)
		} else {
			okLine.Printf("💾 Archived plan %s\n", s.ID)
		}
	}

	if writeReport {
		path, err := a.writer.Save("plan", summary)
		if err != nil {
			failLine.Printf("❌ Could not write plan report: %v\n", err)
		} else {
			a.logger.LogReport("plan", path)
			a.metrics.IncReport("plan")
			okLine.Printf("✅ Plan saved to %s\n", path)
		}
	}

	if s.Success() {
		okLine.Printf("✅ Planning completed successfully! (%d iterations)\n", s.Iterations)
		return true
	}
	failLine.Printf("❌ Planning ended with status %s\n", s.Plan.Status)
	return false
}

const inMemory = ":memory:"

// checkArchive refuses --list against the in-memory database, which is
// always empty in a fresh process, and warns that --save will not outlive
// this run.
func checkArchive(path string, save, list bool) error {
	if path != "" && path != inMemory {
		return nil
	}
	if list {
		return fmt.Errorf("memory.path is %s, so no plans survive between runs; set memory.path to a file to keep an archive", inMemory)
	}
	if save {
		warnLine.Printf("⚠️  memory.path is %s; saved plans are lost when this run ends\n", inMemory)
	}
	return nil
}

func listPlans(archive *store.HistoryStore) error {
	plans, err := archive.ListPlans(20)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Println("No archived plans.")
		return nil
	}
	for _, p := range plans {
		fmt.Printf("%s  %-9s  %.2f  %s  %s\n", p.CreatedAt.Format("2006-01-02 15:04"), p.Status, p.Confidence, p.ID, p.Task)
	}
	return nil
}
