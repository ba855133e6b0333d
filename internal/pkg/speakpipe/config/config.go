package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Backend       string `mapstructure:"backend"`
	Device        string `mapstructure:"device"`
	Voice         string `mapstructure:"voice"`
	Binary        string `mapstructure:"binary"`
	Text          string `mapstructure:"text"`
	Output        string `mapstructure:"output"`
	Rate          int    `mapstructure:"rate"`
	Pitch         int    `mapstructure:"pitch"`
	Volume        int    `mapstructure:"volume"`
	PollBackoffMs int    `mapstructure:"poll_backoff_ms"`
	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	ListBackends  bool   `mapstructure:"list_backends"`
}

func LoadAndParse() (*Config, error) {
	viper.SetDefault("backend", "espeak")
	viper.SetDefault("device", "oto")
	viper.SetDefault("voice", "en")
	viper.SetDefault("output", "output.wav")
	viper.SetDefault("rate", 50)
	viper.SetDefault("pitch", 50)
	viper.SetDefault("volume", 90)
	viper.SetDefault("poll_backoff_ms", 1)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_file", "")

	flagSet := pflag.NewFlagSet("speakpipe", pflag.ContinueOnError)
	configFile := flagSet.StringP("config", "c", "", "Path to config file")
	flagSet.StringP("text", "t", "", "Text to speak (use '-' to read from stdin)")
	flagSet.StringP("file", "f", "", "Read text from file")
	flagSet.StringP("backend", "b", "", "Speech engine backend")
	flagSet.StringP("device", "d", "", "Audio output device backend")
	flagSet.StringP("output", "o", "", "Output WAV file (wav device only)")
	flagSet.StringP("voice", "v", "", "Voice to use")
	flagSet.String("binary", "", "Path to the engine binary, when the backend spawns one")
	flagSet.IntP("rate", "r", 50, "Speech rate (0-100)")
	flagSet.IntP("pitch", "p", 50, "Voice pitch (0-100)")
	flagSet.Int("volume", 90, "Volume (0-100)")
	flagSet.Int("poll-backoff-ms", 1, "Engine poll backoff in milliseconds")
	flagSet.StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
	flagSet.String("log-file", "", "Log file path")
	flagSet.Bool("list", false, "List available backends and exit")
	helpFlag := flagSet.BoolP("help", "h", false, "Show help message")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if *helpFlag {
		fmt.Fprintf(os.Stderr, "Usage: speakpipe [options] [text]\n\nOptions:\n")
		flagSet.PrintDefaults()
		os.Exit(0)
	}

	bindings := map[string]string{
		"text":            "text",
		"backend":         "backend",
		"device":          "device",
		"output":          "output",
		"voice":           "voice",
		"binary":          "binary",
		"rate":            "rate",
		"pitch":           "pitch",
		"volume":          "volume",
		"poll_backoff_ms": "poll-backoff-ms",
		"log_level":       "log-level",
		"log_file":        "log-file",
		"list_backends":   "list",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flagSet.Lookup(flag)); err != nil {
			return nil, err
		}
	}

	if *configFile != "" {
		viper.SetConfigFile(*configFile)
	} else {
		viper.SetConfigName("speakpipe.cfg")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("configs")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "speakpipe"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	viper.SetEnvPrefix("SPEAKPIPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	textFile, _ := flagSet.GetString("file")
	if textFile != "" {
		content, err := os.ReadFile(textFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read text file: %w", err)
		}
		cfg.Text = strings.TrimSpace(string(content))
	} else if cfg.Text == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		cfg.Text = strings.TrimSpace(string(content))
	} else if cfg.Text == "" {
		args := flagSet.Args()
		if len(args) > 0 {
			cfg.Text = strings.Join(args, " ")
		}
	}

	if cfg.Text == "" && !cfg.ListBackends {
		return nil, fmt.Errorf("text is required (use -t, -f, or provide as argument)")
	}

	for _, p := range []struct {
		name string
		val  int
	}{
		{"rate", cfg.Rate},
		{"pitch", cfg.Pitch},
		{"volume", cfg.Volume},
	} {
		if p.val < 0 || p.val > 100 {
			return nil, fmt.Errorf("%s must be between 0 and 100", p.name)
		}
	}
	if cfg.PollBackoffMs < 0 {
		return nil, fmt.Errorf("poll-backoff-ms must not be negative")
	}

	return &cfg, nil
}
