package agent

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestPromptManager_Get(t *testing.T) {
	tempDir := t.TempDir()

	files := map[string]string{
		"responder.md": "  Custom responder  \n",
		"analyst.md":   "",
		"notes.txt":    "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	pm := NewPromptManager(tempDir)

	got, err := pm.Get(PromptResponder)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Custom responder" {
		t.Errorf("Expected override, got %q", got)
	}

	// An empty override falls back to the built-in prompt.
	got, err = pm.Get(PromptAnalyst)
	if err != nil {
		t.Fatal(err)
	}
	if got != defaultPrompts[PromptAnalyst] {
		t.Errorf("Expected default analyst prompt, got %q", got)
	}

	if _, err := pm.Get("nonexistent"); err == nil {
		t.Error("Expected error for unknown prompt")
	}

	if want := []string{"analyst", "responder"}; !reflect.DeepEqual(pm.Overrides(), want) {
		t.Errorf("Overrides = %v, want %v", pm.Overrides(), want)
	}
}

func TestPromptManager_MissingDirectory(t *testing.T) {
	pm := NewPromptManager(filepath.Join(t.TempDir(), "missing"))
	for name := range defaultPrompts {
		if got := pm.MustGet(name); got == "" {
			t.Errorf("Prompt %s is empty", name)
		}
	}
	if len(pm.Overrides()) != 0 {
		t.Error("Expected no overrides")
	}
}
