// CookAIssist: a voice recipe assistant for the terminal.
//
// Usage:
//
//	cookassist [-verbose] [-quiet] [-generator simulated|gemini|openai|backend]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/hammamikhairi/cookassist/internal/assistant"
	"github.com/hammamikhairi/cookassist/internal/display"
	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
	"github.com/hammamikhairi/cookassist/internal/output"
	"github.com/hammamikhairi/cookassist/internal/speech"
	"github.com/hammamikhairi/cookassist/internal/storage"
)

type config struct {
	verbose      bool
	quiet        bool
	logFile      string
	noSpeech     bool
	voice        string
	whisperBin   string
	whisperModel string
	dictateSecs  int
	commandSecs  int
	generator    string
	model        string
	backendURL   string
	delay        time.Duration
	timeout      time.Duration
	history      int
}

func parseFlags() config {
	var c config
	flag.BoolVar(&c.verbose, "verbose", false, "enable verbose/debug logging")
	flag.BoolVar(&c.quiet, "quiet", false, "disable all logging")
	flag.StringVar(&c.logFile, "log-file", ".cookassist-logs/cookassist.log", "file to write logs to (use \"stderr\" to log to console)")
	flag.BoolVar(&c.noSpeech, "no-speech", false, "disable text-to-speech audio even if Azure keys are set")
	flag.StringVar(&c.voice, "voice", speech.DefaultVoice, "Azure neural voice name")
	flag.StringVar(&c.whisperBin, "whisper-bin", "whisper-cli", "path to the whisper-cpp CLI binary")
	flag.StringVar(&c.whisperModel, "whisper-model", "bin/ggml-small.bin", "path to the Whisper GGML model file")
	flag.IntVar(&c.dictateSecs, "dictation-secs", 5, "seconds recorded for one dictation")
	flag.IntVar(&c.commandSecs, "command-secs", 2, "seconds per voice-command recording chunk")
	flag.StringVar(&c.generator, "generator", "simulated", "recipe generator: simulated, gemini, openai or backend")
	flag.StringVar(&c.model, "model", "", "model or Azure deployment name for gemini/openai")
	flag.StringVar(&c.backendURL, "backend-url", "", "recipe backend URL (defaults to $"+envBackendURL+")")
	flag.DurationVar(&c.delay, "delay", 2*time.Second, "simulated generator latency")
	flag.DurationVar(&c.timeout, "timeout", 60*time.Second, "recipe generation timeout")
	flag.IntVar(&c.history, "history", 20, "submissions kept in memory")
	flag.Parse()
	return c
}

func main() {
	_ = godotenv.Load()
	cfg := parseFlags()

	logLevel := logger.LevelNormal
	if cfg.verbose {
		logLevel = logger.LevelVerbose
	}
	if cfg.quiet {
		logLevel = logger.LevelOff
	}

	// Direct logs to a file by default so the UI stays clean.
	var logOut io.Writer = os.Stderr
	if cfg.logFile != "" && cfg.logFile != "stderr" {
		if dir := filepath.Dir(cfg.logFile); dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(cfg.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", cfg.logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Redirect Go's default log package (used by the whisper transcriber)
	// to the same output so it doesn't spam the terminal.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen, closeGen, err := buildGenerator(ctx, cfg, log.Named("generator"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeGen()

	synth := buildSynthesizer(cfg, log.Named("speech"))
	recognizer := speech.NewWhisperRecognizer(cfg.whisperBin, cfg.whisperModel, ".cookassist-stt", log.Named("whisper"),
		speech.WithDictationDuration(time.Duration(cfg.dictateSecs)*time.Second),
		speech.WithCommandChunk(time.Duration(cfg.commandSecs)*time.Second),
	)
	if err := recognizer.Available(); err != nil {
		log.Info("speech recognition disabled: %v", err)
	} else {
		os.MkdirAll(".cookassist-stt", 0o755)
		log.Info("speech recognition enabled (bin=%s, model=%s)", cfg.whisperBin, cfg.whisperModel)
	}

	app := assistant.New(gen, synth, log.Named("assistant"),
		assistant.WithRecognizer(recognizer),
		assistant.WithClipboard(output.NewSystemClipboard(log.Named("clipboard"))),
		assistant.WithHistory(storage.NewMemoryHistory(cfg.history, log.Named("history"))),
		assistant.WithTimeout(cfg.timeout),
		assistant.WithLocale(speech.DefaultLocale),
	)
	ui := display.NewUI(app)

	fmt.Println(display.RenderBanner())

	appDone := make(chan struct{})
	go func() {
		defer close(appDone)
		if err := app.Run(ctx); err != nil {
			log.Error("assistant: %v", err)
		}
		ui.Quit()
	}()

	// Bubble Tea owns the terminal. Blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
	<-appDone
}

// buildSynthesizer picks Azure TTS with local playback when credentials
// and an audio device are present, and the silent timing synthesizer
// otherwise.
func buildSynthesizer(cfg config, log *logger.Logger) domain.Synthesizer {
	key := os.Getenv(speech.EnvAzureSpeechKey)
	region := os.Getenv(speech.EnvAzureSpeechRegion)

	switch {
	case cfg.noSpeech:
		log.Info("speech audio disabled by flag")
	case key == "" || region == "":
		log.Info("speech audio disabled: set %s and %s env vars to enable", speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion)
	default:
		player, err := speech.NewPlayer(log)
		if err != nil {
			log.Error("audio player init failed, speech audio disabled: %v", err)
			break
		}
		tts := speech.NewAzureClient(key, region, log, speech.WithVoice(cfg.voice))
		log.Info("TTS enabled (voice=%s, region=%s)", cfg.voice, region)
		return speech.NewAudioSynthesizer(tts, player, log)
	}
	return speech.NewSilentSynthesizer(log)
}
