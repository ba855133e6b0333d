package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"speakpipe/internal/pkg/speakpipe/config"
	"speakpipe/internal/pkg/speakpipe/device"
	"speakpipe/internal/pkg/speakpipe/driver"
	"speakpipe/internal/pkg/speakpipe/engine"
)

// Version is overridden at release time via -ldflags.
var Version = "dev"

func main() {
	fmt.Fprintf(os.Stderr, "speakpipe %s\n", Version)

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.LoadAndParse()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse configuration")
	}

	if err := setupLogging(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to setup logging")
	}

	if cfg.ListBackends {
		fmt.Fprintf(os.Stderr, "Engine backends: %s\n", strings.Join(engine.ListBackends(), ", "))
		fmt.Fprintf(os.Stderr, "Device backends: %s\n", strings.Join(device.ListBackends(), ", "))
		return
	}

	log.Debug().
		Str("backend", cfg.Backend).
		Str("device", cfg.Device).
		Str("voice", cfg.Voice).
		Int("rate", cfg.Rate).
		Int("pitch", cfg.Pitch).
		Msg("Configuration loaded")

	log.Info().Str("backend", cfg.Backend).Msg("Loading speech engine...")
	eng, err := engine.New(cfg.Backend, engine.Config{Voice: cfg.Voice, Binary: cfg.Binary})
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Backend).Msg("Failed to load engine")
	}

	for _, p := range []struct {
		param engine.Param
		val   int
	}{
		{engine.ParamRate, cfg.Rate},
		{engine.ParamPitch, cfg.Pitch},
		{engine.ParamVolume, cfg.Volume},
	} {
		if err := eng.SetParam(p.param, p.val); err != nil {
			log.Warn().Err(err).Stringer("param", p.param).Msg("Parameter rejected")
		}
	}

	info := eng.Info()
	log.Debug().
		Str("engine", info.Name).
		Int("sample_rate", info.Format.SampleRate).
		Int("channels", info.Format.Channels).
		Msg("Engine loaded")

	dev, err := device.Open(cfg.Device, info.Format, device.Config{Path: cfg.Output})
	if err != nil {
		eng.Shutdown()
		log.Fatal().Err(err).Str("device", cfg.Device).Msg("Failed to open output device")
	}

	words := strings.Fields(cfg.Text)
	utterance := make(driver.Utterance, 0, 2*len(words))
	for i, w := range words {
		utterance = append(utterance, driver.Text(w), driver.Index(i))
	}

	done := make(chan struct{})
	drv := driver.New(eng, dev, driver.Notifications{
		OnIndexReached: func(i int) {
			if i < len(words) {
				log.Debug().Int("index", i).Str("word", words[i]).Msg("Spoken")
			}
		},
		OnDoneSpeaking: func() { close(done) },
	}, driver.Options{
		PollBackoff: time.Duration(cfg.PollBackoffMs) * time.Millisecond,
		Logger:      log.Logger,
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	start := time.Now()
	log.Info().Str("text", truncateText(cfg.Text, 50)).Msg("Speaking...")
	drv.Speak(utterance)

	select {
	case <-done:
		log.Info().Dur("elapsed", time.Since(start)).Msg("Done speaking")
	case <-sig:
		log.Warn().Msg("Interrupted, cancelling")
		drv.Cancel()
	}

	if err := drv.Close(); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
}

func setupLogging(cfg *config.Config) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		log.Logger = zerolog.New(f).With().Timestamp().Logger()
	}

	return nil
}

func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
