package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rahul/agentladder/internal/llm"
)

func TestGenerateSendsWireFormat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"model":"llama3.2","response":"Sunny skies.","done":true}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", Model: "llama3.2", Temperature: 0.7, TopP: 0.9, NumPredict: 500, KeepAlive: "5m"})
	out, err := c.Generate(context.Background(), llm.Request{Prompt: "weather?", System: "be brief", MaxTokens: 300})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "Sunny skies." {
		t.Errorf("response = %q", out)
	}

	if got["model"] != "llama3.2" || got["prompt"] != "weather?" || got["system"] != "be brief" {
		t.Errorf("unexpected body: %v", got)
	}
	if got["stream"] != false {
		t.Errorf("stream = %v, want false", got["stream"])
	}
	opts, _ := got["options"].(map[string]any)
	if opts["temperature"] != 0.7 || opts["top_p"] != 0.9 || opts["num_predict"] != float64(300) {
		t.Errorf("unexpected options: %v", opts)
	}
}

func TestGenerateOmitsEmptySystem(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Model: "m"})
	if _, err := c.Generate(context.Background(), llm.Request{Prompt: "p"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := got["system"]; ok {
		t.Errorf("system should be omitted, body: %v", got)
	}
}

func TestGenerateNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'llama9' not found"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Model: "llama9"})
	_, err := c.Generate(context.Background(), llm.Request{Prompt: "p"})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
	var ce *ClientError
	if !errors.As(err, &ce) || ce.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404 in error, got %v", err)
	}
}

func TestGenerateNotRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url, Model: "m", Timeout: time.Second})
	_, err := c.Generate(context.Background(), llm.Request{Prompt: "p"})
	if !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Config{BaseURL: srv.URL, Model: "m", Timeout: 50 * time.Millisecond})
	_, err := c.Generate(context.Background(), llm.Request{Prompt: "p"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestHasModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"models":[{"name":"llama3.2:latest"},{"name":"mistral:7b"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	ok, names, err := c.HasModel(context.Background(), "llama3.2")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("llama3.2 should match llama3.2:latest")
	}
	if len(names) != 2 {
		t.Errorf("names = %v", names)
	}
	ok, _, _ = c.HasModel(context.Background(), "mistral")
	if ok {
		t.Error("mistral should not match mistral:7b")
	}
}

func TestEnsureModelPullsMissing(t *testing.T) {
	pulled := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[]}`))
		case "/api/pull":
			var req PullRequest
			json.NewDecoder(r.Body).Decode(&req)
			pulled = req.Model
			w.Write([]byte(`{"status":"success"}`))
		}
	}))
	defer srv.Close()

	l := NewLifecycle(NewClient(Config{BaseURL: srv.URL}))
	did, err := l.EnsureModel(context.Background(), "llama3.2")
	if err != nil {
		t.Fatal(err)
	}
	if !did || pulled != "llama3.2" {
		t.Errorf("expected pull of llama3.2, did=%v pulled=%q", did, pulled)
	}
}

func TestInstalledMissingBinary(t *testing.T) {
	l := NewLifecycle(NewClient(Config{}))
	l.LookPath = func(string) (string, error) { return "", errors.New("not found") }
	if _, err := l.Installed(context.Background()); err == nil {
		t.Error("expected error when binary is missing")
	}
}

func TestWaitUntilRunningGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	l := NewLifecycle(NewClient(Config{BaseURL: url, Timeout: 100 * time.Millisecond}))
	l.StartTimeout = 200 * time.Millisecond
	l.PollInterval = 20 * time.Millisecond
	if err := l.WaitUntilRunning(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning, got %v", err)
	}
}
