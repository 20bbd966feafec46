package model

import "time"

// Config holds the complete application configuration
type Config struct {
	DataDir    string           `yaml:"data_dir"`
	HTTP       HTTPConfig       `yaml:"http"`
	Collect    CollectConfig    `yaml:"collect"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Verify     VerifyConfig     `yaml:"verify"`
	Output     OutputConfig     `yaml:"output"`
}

// HTTPConfig holds shared HTTP client settings
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	UserAgent  string        `yaml:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty"`
}

// CollectConfig holds collector settings
type CollectConfig struct {
	RansomwareLiveURL string  `yaml:"ransomware_live_url"`
	RansomwhereURL    string  `yaml:"ransomwhere_url"`
	APIKey            string  `yaml:"api_key,omitempty"` // Usually RANSOMWARELIVE_API_KEY instead
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	GroupLimit        int     `yaml:"group_limit"` // Max negotiation groups per run; chat pulls are slow
	Workers           int     `yaml:"workers"`
}

// EmbeddingConfig holds embedding backend settings
type EmbeddingConfig struct {
	Provider     string `yaml:"provider"` // "openai", "ollama"
	Model        string `yaml:"model"`
	APIKey       string `yaml:"api_key,omitempty"`
	BaseURL      string `yaml:"base_url,omitempty"`
	Timeout      int    `yaml:"timeout"` // seconds
	CacheEnabled bool   `yaml:"cache_enabled"`
	CacheDir     string `yaml:"cache_dir,omitempty"` // Defaults under data_dir
}

// ClassifierConfig holds semantic classifier settings
type ClassifierConfig struct {
	Threshold    float64 `yaml:"threshold"`
	TaxonomyPath string  `yaml:"taxonomy_path,omitempty"` // Empty means the embedded taxonomy
}

// VerifyConfig holds leak-site verification settings
type VerifyConfig struct {
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

// OutputConfig holds output settings
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "perfidia/0.1 (+https://github.com/vpenkov/perfidia)",
		},
		Collect: CollectConfig{
			RansomwareLiveURL: "https://api-pro.ransomware.live",
			RansomwhereURL:    "https://api.ransomwhe.re",
			RequestsPerSecond: 2,
			Burst:             1,
			GroupLimit:        5,
			Workers:           4,
		},
		Embedding: EmbeddingConfig{
			Provider:     "ollama",
			Model:        "nomic-embed-text",
			Timeout:      60,
			CacheEnabled: true,
		},
		Classifier: ClassifierConfig{
			Threshold: 0.6,
		},
		Verify: VerifyConfig{
			Workers: 20,
			Timeout: 10 * time.Second,
		},
		Output: OutputConfig{},
	}
}
