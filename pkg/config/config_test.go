package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OLLAMA_HOST", "OLLAMA_MODEL", "OPENWEATHER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "llama3.2", cfg.Ollama.Model)
	assert.Equal(t, 60*time.Second, cfg.Ollama.Timeout.Std())
	assert.Equal(t, "London", cfg.Weather.City)
	assert.Equal(t, 5, cfg.Planner.MaxIterations)
	assert.InDelta(t, 0.7, cfg.Planner.ConfidenceThreshold, 1e-9)
	assert.Equal(t, ":memory:", cfg.Memory.Path)
	assert.Contains(t, cfg.Assistant.AllowedDomains, "forecast")
	assert.Contains(t, cfg.Assistant.SafetyConstraints, "medical advice")
}

func TestLoadConfigJSON(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{
		"ollama": {"base_url": "http://gpu-box:11434/", "model": "mistral", "timeout": "90s"},
		"weather": {"city": "Paris", "cache_ttl": 30},
		"planner": {"max_iterations": 3},
		"providers": {"openai": {"api_key": "sk", "model": "gpt-4o-mini", "enabled": true}},
		"gateways": {"telegram": {"token": "t", "enabled": true, "notify_chat_id": "42"}}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "mistral", cfg.Ollama.Model)
	assert.Equal(t, 90*time.Second, cfg.Ollama.Timeout.Std())
	assert.Equal(t, "Paris", cfg.Weather.City)
	assert.Equal(t, 30*time.Second, cfg.Weather.CacheTTL.Std())
	assert.Equal(t, 3, cfg.Planner.MaxIterations)
	// Fields the file omits keep their defaults.
	assert.Equal(t, 500, cfg.Ollama.NumPredict)
	assert.Equal(t, "reports", cfg.App.OutputDir)

	name, p := cfg.GetDefaultProvider()
	assert.Equal(t, "openai", name)
	assert.Equal(t, "gpt-4o-mini", p.Model)

	gw, ok := cfg.GetGatewayConfig("telegram")
	require.True(t, ok)
	assert.Equal(t, "42", gw.NotifyChatID)
}

func TestLoadConfigYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
ollama:
  model: phi3
  timeout: 2m
weather:
  city: Tokyo
assistant:
  min_confidence: 0.5
  safety_constraints: ["gambling"]
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "phi3", cfg.Ollama.Model)
	assert.Equal(t, 2*time.Minute, cfg.Ollama.Timeout.Std())
	assert.Equal(t, "Tokyo", cfg.Weather.City)
	assert.InDelta(t, 0.5, cfg.Assistant.MinConfidence, 1e-9)
	assert.Equal(t, []string{"gambling"}, cfg.Assistant.SafetyConstraints)
}

func TestLoadConfigTOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", `
[ollama]
model = "qwen2"
timeout = "45s"

[planner]
confidence_threshold = 0.8
live_weather = true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "qwen2", cfg.Ollama.Model)
	assert.Equal(t, 45*time.Second, cfg.Ollama.Timeout.Std())
	assert.InDelta(t, 0.8, cfg.Planner.ConfidenceThreshold, 1e-9)
	assert.True(t, cfg.Planner.LiveWeather)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_HOST", "127.0.0.1:11500")
	t.Setenv("OLLAMA_MODEL", "gemma")
	t.Setenv("OPENWEATHER_API_KEY", "abc")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:11500", cfg.Ollama.BaseURL)
	assert.Equal(t, "gemma", cfg.Ollama.Model)
	assert.Equal(t, "abc", cfg.Weather.APIKey)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{"planner": {"confidence_threshold": 1.5}}`)
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "confidence_threshold")

	path = writeFile(t, "broken.json", `{"ollama": `)
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "failed to decode config file")

	path = writeFile(t, "dur.json", `{"ollama": {"timeout": "soon"}}`)
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestGetDefaultProviderOrder(t *testing.T) {
	cfg := Default()
	cfg.Providers = map[string]ProviderConfig{
		"openrouter": {Model: "b", Enabled: true},
		"ollama":     {Model: "a", Enabled: true},
		"openai":     {Model: "c"},
	}
	name, p := cfg.GetDefaultProvider()
	assert.Equal(t, "ollama", name)
	assert.Equal(t, "a", p.Model)

	cfg.Providers = nil
	name, _ = cfg.GetDefaultProvider()
	assert.Empty(t, name)
}

func TestGetGatewayConfig(t *testing.T) {
	cfg := Default()
	cfg.Gateways = map[string]GatewayConfig{
		"telegram": {Token: "t", Enabled: false},
		"discord":  {Token: "", Enabled: true},
	}
	_, ok := cfg.GetGatewayConfig("telegram")
	assert.False(t, ok)
	_, ok = cfg.GetGatewayConfig("discord")
	assert.False(t, ok)
	_, ok = cfg.GetGatewayConfig("slack")
	assert.False(t, ok)
}
