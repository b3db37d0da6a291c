package agent

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rahul/agentladder/internal/planner"
)

// Prompt names. A file <dir>/<name>.md overrides the built-in text.
const (
	PromptAnalyst         = "analyst"
	PromptReasoning       = "reasoning"
	PromptQueryAnalyzer   = "query_analyzer"
	PromptResponder       = "responder"
	PromptWeatherReporter = "weather_reporter"
	PromptDinoReporter    = "dino_reporter"
)

var defaultPrompts = map[string]string{
	PromptAnalyst:         planner.AnalystSystemPrompt,
	PromptReasoning:       planner.ReasoningSystemPrompt,
	PromptQueryAnalyzer:   "You are a weather query analyzer. Respond only with valid JSON.",
	PromptResponder:       "You are a helpful weather assistant. Provide accurate, helpful weather information in a conversational tone.",
	PromptWeatherReporter: "You are a friendly weather reporter. Provide brief, helpful weather summaries.",
	PromptDinoReporter:    "You are Jeff Goldblum, respond as his character in Jurassic Park. Provide brief, interesting dinosaur summaries.",
}

type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

// Get returns the system prompt called name.
func (pm *PromptManager) Get(name string) (string, error) {
	if pm.Directory != "" {
		path := filepath.Join(pm.Directory, name+".md")
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if s := strings.TrimSpace(string(data)); s != "" {
				return s, nil
			}
		case !errors.Is(err, fs.ErrNotExist):
			log.Printf("Warning: Failed to read prompt file %s: %v", path, err)
		}
	}
	if s, ok := defaultPrompts[name]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}

// MustGet is Get for the built-in names, which always resolve.
func (pm *PromptManager) MustGet(name string) string {
	s, err := pm.Get(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Overrides lists the prompt names that have a file in Directory.
func (pm *PromptManager) Overrides() []string {
	entries, err := os.ReadDir(pm.Directory)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, strings.TrimSuffix(e.Name(), ".md"))
		}
	}
	sort.Strings(names)
	return names
}
