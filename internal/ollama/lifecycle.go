package ollama

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rahul/agentladder/internal/llm"
)

const smokePrompt = "Hello, this is a test. Please respond with 'Model is working correctly.'"

// Lifecycle installs nothing itself; it finds, starts and prepares an
// existing Ollama installation.
type Lifecycle struct {
	Client       *Client
	LookPath     func(file string) (string, error)
	StartTimeout time.Duration
	PollInterval time.Duration
}

func NewLifecycle(c *Client) *Lifecycle {
	return &Lifecycle{
		Client:       c,
		LookPath:     exec.LookPath,
		StartTimeout: 15 * time.Second,
		PollInterval: 500 * time.Millisecond,
	}
}

// Installed returns the output of `ollama --version`.
func (l *Lifecycle) Installed(ctx context.Context) (string, error) {
	path, err := l.LookPath("ollama")
	if err != nil {
		return "", fmt.Errorf("ollama is not installed: %w", err)
	}
	out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ollama --version: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Start launches `ollama serve` in the background and waits for the API.
func (l *Lifecycle) Start(ctx context.Context) error {
	if err := l.Client.CheckRunning(ctx); err == nil {
		return nil
	}
	path, err := l.LookPath("ollama")
	if err != nil {
		return fmt.Errorf("ollama is not installed: %w", err)
	}
	cmd := exec.Command(path, "serve")
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start Ollama server: %w", err)
	}
	// The server outlives us; reap it if it exits early.
	go func() { _ = cmd.Wait() }()
	return l.WaitUntilRunning(ctx)
}

func (l *Lifecycle) WaitUntilRunning(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.StartTimeout)
	defer cancel()

	ticker := time.NewTicker(l.PollInterval)
	defer ticker.Stop()
	for {
		if err := l.Client.CheckRunning(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("Ollama server failed to start: %w", ErrNotRunning)
		case <-ticker.C:
		}
	}
}

// EnsureModel pulls model when it is missing. It reports whether a pull happened.
func (l *Lifecycle) EnsureModel(ctx context.Context, model string) (bool, error) {
	ok, _, err := l.Client.HasModel(ctx, model)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}
	if err := l.Client.Pull(ctx, model); err != nil {
		return false, fmt.Errorf("failed to download model %s: %w", model, err)
	}
	return true, nil
}

// SmokeTest sends a fixed prompt and returns the reply.
func (l *Lifecycle) SmokeTest(ctx context.Context) (string, error) {
	out, err := l.Client.Generate(ctx, llm.Request{Prompt: smokePrompt})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
