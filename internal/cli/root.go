package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/fnolroute/internal/model"
)

// Version is overridden at build time with -ldflags "-X .../cli.Version=..."
var Version = "v0.1.0-dev"

var envReplacer = strings.NewReplacer(".", "_")

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fnolroute",
	Short: "fnolroute - First Notice of Loss extraction and routing",
	Long: `fnolroute reads First Notice of Loss documents (text, PDF, scanned images,
HTML), extracts the claim fields, validates them and recommends one handling
queue: Fast-track, Manual Review, Investigation or Specialist Queue.

Every decision comes from fixed rules and carries a one-line reason. An optional
LLM note can explain a decision but never changes it.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fnolroute %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.fnolroute/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Int64("threshold", 25000, "fast-track threshold: damage strictly below it may be fast-tracked")
	pf.Bool("no-cache", false, "disable the report cache")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = viper.BindPFlag("routing.fast_track_threshold", pf.Lookup("threshold"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and FNOLROUTE_* environment variables
func initConfig() {
	// A .env in the working directory is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else if dir, err := configDir(); err == nil {
		// Search for config in home directory
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	setDefaults(viper.GetViper(), model.DefaultConfig())

	// Read in environment variables that match FNOLROUTE_* (llm.api_key -> FNOLROUTE_LLM_API_KEY)
	viper.SetEnvPrefix("FNOLROUTE")
	viper.SetEnvKeyReplacer(envReplacer)
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	} else if err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: could not read config %s: %v\n", cfgFile, err)
	}
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return filepath.Join(home, ".fnolroute"), nil
}

// setDefaults registers every config key so env vars and Unmarshal see it
func setDefaults(v *viper.Viper, d *model.Config) {
	v.SetDefault("routing.fast_track_threshold", d.Routing.FastTrackThreshold)

	v.SetDefault("extract.max_input_bytes", d.Extract.MaxInputBytes)
	v.SetDefault("extract.snippet_lines", d.Extract.SnippetLines)

	v.SetDefault("source.pdftotext", d.Source.Pdftotext)
	v.SetDefault("source.pdftoppm", d.Source.Pdftoppm)
	v.SetDefault("source.tesseract", d.Source.Tesseract)
	v.SetDefault("source.tesseract_lang", d.Source.TesseractLang)
	v.SetDefault("source.dpi", d.Source.DPI)
	v.SetDefault("source.max_pages", d.Source.MaxPages)
	v.SetDefault("source.timeout", d.Source.Timeout)
	v.SetDefault("source.max_text_bytes", d.Source.MaxTextBytes)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	v.SetDefault("server.requests_per_second", d.Server.RequestsPerSecond)
	v.SetDefault("server.burst", d.Server.Burst)

	v.SetDefault("concurrency.workers", d.Concurrency.Workers)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.http_proxy", d.LLM.HTTPProxy)
	v.SetDefault("llm.https_proxy", d.LLM.HTTPSProxy)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("output.verbose", d.Output.Verbose)
	v.SetDefault("output.check_schema", d.Output.CheckSchema)
}

// loadConfig resolves flags > env > config file > defaults into a Config
func loadConfig(cmd *cobra.Command, v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if f := cmd.Flags().Lookup("no-cache"); f != nil && f.Changed {
		cfg.Cache.Enabled = false
	}
	if cfg.Output.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the process logger; it always writes to w (stderr in practice)
func newLogger(w io.Writer, lc model.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(lc.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// setup loads config and installs the logger as the slog default
func setup(cmd *cobra.Command) (*model.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd, viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
