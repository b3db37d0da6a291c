package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig                 `json:"app" yaml:"app" toml:"app"`
	Providers map[string]ProviderConfig `json:"providers" yaml:"providers" toml:"providers"`
	Ollama    OllamaConfig              `json:"ollama" yaml:"ollama" toml:"ollama"`
	Weather   WeatherConfig             `json:"weather" yaml:"weather" toml:"weather"`
	Dino      DinoConfig                `json:"dino" yaml:"dino" toml:"dino"`
	Planner   PlannerConfig             `json:"planner" yaml:"planner" toml:"planner"`
	Assistant AssistantConfig           `json:"assistant" yaml:"assistant" toml:"assistant"`
	Gateways  map[string]GatewayConfig  `json:"gateways" yaml:"gateways" toml:"gateways"`
	Memory    MemoryConfig              `json:"memory" yaml:"memory" toml:"memory"`
	Metrics   MetricsConfig             `json:"metrics" yaml:"metrics" toml:"metrics"`
}

type AppConfig struct {
	Name       string `json:"name" yaml:"name" toml:"name"`
	OutputDir  string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	PromptsDir string `json:"prompts_dir" yaml:"prompts_dir" toml:"prompts_dir"`
	LogDir     string `json:"log_dir" yaml:"log_dir" toml:"log_dir"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key" toml:"api_key"`
	Model   string `json:"model" yaml:"model" toml:"model"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url"`
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// OllamaConfig describes the local text-generation endpoint.
type OllamaConfig struct {
	BaseURL     string   `json:"base_url" yaml:"base_url" toml:"base_url"`
	Model       string   `json:"model" yaml:"model" toml:"model"`
	Timeout     Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
	KeepAlive   string   `json:"keep_alive" yaml:"keep_alive" toml:"keep_alive"`
	Temperature float64  `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopP        float64  `json:"top_p" yaml:"top_p" toml:"top_p"`
	NumPredict  int      `json:"num_predict" yaml:"num_predict" toml:"num_predict"`
}

type WeatherConfig struct {
	APIKey    string   `json:"api_key" yaml:"api_key" toml:"api_key"`
	City      string   `json:"city" yaml:"city" toml:"city"`
	BaseURL   string   `json:"base_url" yaml:"base_url" toml:"base_url"`
	CacheTTL  Duration `json:"cache_ttl" yaml:"cache_ttl" toml:"cache_ttl"`
	CacheSize int      `json:"cache_size" yaml:"cache_size" toml:"cache_size"`
}

type DinoConfig struct {
	BaseURL     string `json:"base_url" yaml:"base_url" toml:"base_url"`
	Name        string `json:"name" yaml:"name" toml:"name"`
	Description string `json:"description" yaml:"description" toml:"description"`
}

type PlannerConfig struct {
	MaxIterations       int     `json:"max_iterations" yaml:"max_iterations" toml:"max_iterations"`
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold" toml:"confidence_threshold"`
	LiveWeather         bool    `json:"live_weather" yaml:"live_weather" toml:"live_weather"`
}

type AssistantConfig struct {
	AllowedDomains    []string `json:"allowed_domains" yaml:"allowed_domains" toml:"allowed_domains"`
	SafetyConstraints []string `json:"safety_constraints" yaml:"safety_constraints" toml:"safety_constraints"`
	MinConfidence     float64  `json:"min_confidence" yaml:"min_confidence" toml:"min_confidence"`
	MaxHistory        int      `json:"max_history" yaml:"max_history" toml:"max_history"`
	MaxResponseChars  int      `json:"max_response_chars" yaml:"max_response_chars" toml:"max_response_chars"`
}

type GatewayConfig struct {
	Token        string `json:"token" yaml:"token" toml:"token"`
	Enabled      bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	NotifyChatID string `json:"notify_chat_id,omitempty" yaml:"notify_chat_id,omitempty" toml:"notify_chat_id"`
}

type MemoryConfig struct {
	Path string `json:"path" yaml:"path" toml:"path"`
}

type MetricsConfig struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
}

// Duration is a time.Duration that reads "90s"-style strings or plain seconds.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) set(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*d = 0
		return nil
	}
	if v, err := time.ParseDuration(s); err == nil {
		*d = Duration(v)
		return nil
	}
	var secs float64
	if _, err := fmt.Sscanf(s, "%g", &secs); err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*d = Duration(v * float64(time.Second))
		return nil
	case string:
		return d.set(v)
	case nil:
		*d = 0
		return nil
	}
	return fmt.Errorf("invalid duration %s", string(b))
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.set(node.Value)
}

// UnmarshalText covers TOML string values.
func (d *Duration) UnmarshalText(b []byte) error {
	return d.set(string(b))
}

// Default returns the built-in settings used when no config file exists.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:       "agentladder",
			OutputDir:  "reports",
			PromptsDir: "prompts",
			LogDir:     "logs",
		},
		Providers: map[string]ProviderConfig{},
		Ollama: OllamaConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "llama3.2",
			Timeout:     Duration(60 * time.Second),
			KeepAlive:   "5m",
			Temperature: 0.7,
			TopP:        0.9,
			NumPredict:  500,
		},
		Weather: WeatherConfig{
			City:      "London",
			BaseURL:   "http://api.openweathermap.org",
			CacheTTL:  Duration(5 * time.Minute),
			CacheSize: 64,
		},
		Dino: DinoConfig{
			BaseURL:     "https://dinosaur-facts-api.shultzlab.com",
			Name:        "Tyrannosaurus",
			Description: "Large carnivorous dinosaur",
		},
		Planner: PlannerConfig{
			MaxIterations:       5,
			ConfidenceThreshold: 0.7,
		},
		Assistant: AssistantConfig{
			AllowedDomains: []string{
				"weather", "temperature", "rain", "sunny", "cloudy",
				"wind", "humidity", "forecast", "climate", "precipitation",
			},
			SafetyConstraints: []string{
				"medical advice", "financial advice", "legal advice",
				"personal information", "inappropriate content", "off-topic queries",
			},
			MinConfidence:    0.3,
			MaxHistory:       10,
			MaxResponseChars: 500,
		},
		Gateways: map[string]GatewayConfig{},
		Memory:   MemoryConfig{Path: ":memory:"},
	}
}

// LoadConfig reads path on top of Default. A missing file is not an error.
// The format is chosen by extension: .json, .yaml/.yml or .toml.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to open config file: %w", err)
		default:
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode config file: %w", err)
			}
		}
	}
	cfg.applyEnv()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return json.Unmarshal(data, cfg)
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			v = "http://" + v
		}
		c.Ollama.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		c.Ollama.Model = v
	}
	if v := os.Getenv("OPENWEATHER_API_KEY"); v != "" {
		c.Weather.APIKey = v
	}
}

// fillDefaults restores zero values a partial file left behind.
func (c *Config) fillDefaults() {
	d := Default()
	if c.App.Name == "" {
		c.App.Name = d.App.Name
	}
	if c.App.OutputDir == "" {
		c.App.OutputDir = d.App.OutputDir
	}
	if c.App.PromptsDir == "" {
		c.App.PromptsDir = d.App.PromptsDir
	}
	if c.App.LogDir == "" {
		c.App.LogDir = d.App.LogDir
	}
	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = d.Ollama.BaseURL
	}
	c.Ollama.BaseURL = strings.TrimRight(c.Ollama.BaseURL, "/")
	if c.Ollama.Model == "" {
		c.Ollama.Model = d.Ollama.Model
	}
	if c.Ollama.Timeout <= 0 {
		c.Ollama.Timeout = d.Ollama.Timeout
	}
	if c.Ollama.NumPredict <= 0 {
		c.Ollama.NumPredict = d.Ollama.NumPredict
	}
	if c.Weather.City == "" {
		c.Weather.City = d.Weather.City
	}
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = d.Weather.BaseURL
	}
	if c.Weather.CacheTTL <= 0 {
		c.Weather.CacheTTL = d.Weather.CacheTTL
	}
	if c.Weather.CacheSize <= 0 {
		c.Weather.CacheSize = d.Weather.CacheSize
	}
	if c.Dino.BaseURL == "" {
		c.Dino.BaseURL = d.Dino.BaseURL
	}
	if c.Dino.Name == "" {
		c.Dino.Name = d.Dino.Name
	}
	if c.Planner.MaxIterations <= 0 {
		c.Planner.MaxIterations = d.Planner.MaxIterations
	}
	if c.Planner.ConfidenceThreshold == 0 {
		c.Planner.ConfidenceThreshold = d.Planner.ConfidenceThreshold
	}
	if c.Assistant.AllowedDomains == nil {
		c.Assistant.AllowedDomains = d.Assistant.AllowedDomains
	}
	if c.Assistant.SafetyConstraints == nil {
		c.Assistant.SafetyConstraints = d.Assistant.SafetyConstraints
	}
	if c.Assistant.MaxHistory <= 0 {
		c.Assistant.MaxHistory = d.Assistant.MaxHistory
	}
	if c.Assistant.MaxResponseChars <= 0 {
		c.Assistant.MaxResponseChars = d.Assistant.MaxResponseChars
	}
	if c.Memory.Path == "" {
		c.Memory.Path = d.Memory.Path
	}
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	if c.Gateways == nil {
		c.Gateways = map[string]GatewayConfig{}
	}
}

func (c *Config) Validate() error {
	if c.Planner.ConfidenceThreshold < 0 || c.Planner.ConfidenceThreshold > 1 {
		return fmt.Errorf("planner.confidence_threshold must be within [0,1], got %v", c.Planner.ConfidenceThreshold)
	}
	if c.Assistant.MinConfidence < 0 || c.Assistant.MinConfidence > 1 {
		return fmt.Errorf("assistant.min_confidence must be within [0,1], got %v", c.Assistant.MinConfidence)
	}
	if c.Ollama.Temperature < 0 {
		return fmt.Errorf("ollama.temperature must not be negative")
	}
	return nil
}

// GetDefaultProvider returns the first enabled provider, in name order so
// the choice is stable across runs.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetGatewayConfig returns the named gateway config if enabled.
func (c *Config) GetGatewayConfig(name string) (GatewayConfig, bool) {
	gw, ok := c.Gateways[name]
	if ok && gw.Enabled && gw.Token != "" {
		return gw, true
	}
	return GatewayConfig{}, false
}
