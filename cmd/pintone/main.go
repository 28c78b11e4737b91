package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/aromabox/pintone/pkg/config"
	"github.com/aromabox/pintone/pkg/pin"
	"github.com/aromabox/pintone/pkg/pintone"
	"github.com/aromabox/pintone/pkg/terminal"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] PIN\n\nPlays PIN as DTMF tones for a vending machine.\nPIN is 1-6 digits; with --keypad it may also contain '*' and '#'.\n\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	var (
		configPath string
		output     string
		wavPath    string
		toneMs     int
		gapMs      int
		sampleRate int
		generate   int
		keypad     bool
		debug      bool
	)

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&output, "output", "", "where tones go: speaker, wav or stub")
	flag.StringVar(&wavPath, "wav", "", "write tones to this WAV file (implies --output wav)")
	flag.IntVar(&toneMs, "tone-ms", 0, "tone duration in milliseconds")
	flag.IntVar(&gapMs, "gap-ms", -1, "silence between tones in milliseconds")
	flag.IntVar(&sampleRate, "sample-rate", 0, "sample rate in Hz")
	flag.IntVarP(&generate, "generate", "g", 0, "generate a random PIN of this length instead of reading one")
	flag.BoolVarP(&keypad, "keypad", "k", false, "also accept '*' and '#' in PIN")
	flag.BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	flag.Usage = usage
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath, log)
	} else {
		cfg, err = config.LoadFiles(config.Locate(log), false, log)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if flag.CommandLine.Changed("output") {
		cfg.Output = output
	}
	if wavPath != "" {
		cfg.Output = config.OutputWAV
		cfg.WAVPath = wavPath
	}
	if toneMs > 0 {
		cfg.Tone.DurationMs = toneMs
	}
	if gapMs >= 0 {
		cfg.Tone.GapMs = gapMs
	}
	if sampleRate > 0 {
		cfg.Tone.SampleRate = sampleRate
	}
	if debug {
		cfg.Debug = true
	}
	if cfg.Debug {
		log = log.Level(zerolog.DebugLevel)
	}

	var code string
	switch {
	case generate > 0:
		code, err = pin.Generate(generate)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to generate PIN")
		}
		fmt.Println(code)
	case flag.NArg() == 1:
		code = flag.Arg(0)
	default:
		flag.Usage()
		os.Exit(2)
	}

	validate := pin.Validate
	if keypad {
		validate = pin.ValidateKeypad
	}
	if err := validate(code); err != nil {
		log.Fatal().Err(err).Msg("Invalid PIN")
	}

	p, err := pintone.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start pintone")
	}
	defer p.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := terminal.NewProgress(os.Stdout, code)
	err = p.Transmit(ctx, code, func(_ rune, index int) {
		if err := progress.Render(index); err != nil {
			log.Warn().Err(err).Msg("Failed to render progress")
		}
	})
	if doneErr := progress.Done(); doneErr != nil {
		log.Warn().Err(doneErr).Msg("Failed to render progress")
	}
	if err != nil {
		p.Stop()
		log.Fatal().Err(err).Msg("Failed to transmit PIN")
	}
}
