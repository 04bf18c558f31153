package model

import "time"

// Config holds every tunable of the tool. Defaults come from DefaultConfig and are
// overridden by the config file, FNOLROUTE_* environment variables and CLI flags.
type Config struct {
	Routing     RoutingConfig     `yaml:"routing" mapstructure:"routing"`
	Extract     ExtractConfig     `yaml:"extract" mapstructure:"extract"`
	Source      SourceConfig      `yaml:"source" mapstructure:"source"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// RoutingConfig configures the router
type RoutingConfig struct {
	FastTrackThreshold int64 `yaml:"fast_track_threshold" mapstructure:"fast_track_threshold"` // Strictly-below amount for Fast-track
}

// ExtractConfig bounds the field extractor
type ExtractConfig struct {
	MaxInputBytes int `yaml:"max_input_bytes" mapstructure:"max_input_bytes"` // Longer input is truncated before matching
	SnippetLines  int `yaml:"snippet_lines" mapstructure:"snippet_lines"`     // Lines kept in raw_text_snippet
}

// SourceConfig configures the text source adapter and the external tools it runs
type SourceConfig struct {
	Pdftotext     string        `yaml:"pdftotext" mapstructure:"pdftotext"`
	Pdftoppm      string        `yaml:"pdftoppm" mapstructure:"pdftoppm"`
	Tesseract     string        `yaml:"tesseract" mapstructure:"tesseract"`
	TesseractLang string        `yaml:"tesseract_lang" mapstructure:"tesseract_lang"`
	DPI           int           `yaml:"dpi" mapstructure:"dpi"`
	MaxPages      int           `yaml:"max_pages" mapstructure:"max_pages"` // 0 = no limit
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`     // Per document
	MaxTextBytes  int64         `yaml:"max_text_bytes" mapstructure:"max_text_bytes"`
}

// ServerConfig configures the HTTP transport
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout       time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxUploadMB       int64         `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // Per client, 0 disables
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig configures the in-memory report cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LLMConfig configures the optional decision summary
type LLMConfig struct {
	Provider   string        `yaml:"provider" mapstructure:"provider"` // "" disables, "openai"
	Model      string        `yaml:"model" mapstructure:"model"`
	APIKey     string        `yaml:"-" mapstructure:"api_key"`
	BaseURL    string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens  int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// LogConfig configures slog output
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// OutputConfig configures report rendering
type OutputConfig struct {
	Verbose     bool `yaml:"verbose" mapstructure:"verbose"`
	CheckSchema bool `yaml:"check_schema" mapstructure:"check_schema"` // Validate reports against the JSON contract
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Routing: RoutingConfig{
			FastTrackThreshold: 25000,
		},
		Extract: ExtractConfig{
			MaxInputBytes: 2_000_000,
			SnippetLines:  30,
		},
		Source: SourceConfig{
			Pdftotext:     "pdftotext",
			Pdftoppm:      "pdftoppm",
			Tesseract:     "tesseract",
			TesseractLang: "eng",
			DPI:           300,
			Timeout:       2 * time.Minute,
			MaxTextBytes:  10_000_000,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      3 * time.Minute,
			MaxUploadMB:       20,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		LLM: LLMConfig{
			Model:     "gpt-4o-mini",
			Timeout:   30 * time.Second,
			MaxTokens: 400,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
