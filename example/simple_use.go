package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/leandrodaf/vjsense/internal/logger"
	"github.com/leandrodaf/vjsense/sdk/contracts"
	"github.com/leandrodaf/vjsense/sdk/engine"
	"github.com/leandrodaf/vjsense/sdk/sensors"
)

func main() {
	var (
		configPath   = flag.String("config", "", "layer configuration file (default: user config dir)")
		logLevel     = flag.String("log-level", "info", "log level: debug, info, warn, error")
		logFile      = flag.String("log-file", "", "write logs to this file instead of stderr")
		audioBackend = flag.String("audio", contracts.AudioBackendPortAudio, "audio backend: portaudio, miniaudio")
		midiBackend  = flag.String("midi", contracts.MIDIBackendAuto, "MIDI backend: auto, coremidi, winmm, rtmidi")
		midiPort     = flag.Int("midi-port", 0, "MIDI input port opened at startup")
		window       = flag.String("window", "none", "analysis window: none, hann, hamming, blackman, bartlett, flattop")
	)
	flag.Parse()

	log := logger.NewZapLogger()
	level, err := contracts.ParseLogLevel(*logLevel)
	if err != nil {
		log.Error("Invalid log level", log.Field().Error("error", err))
		os.Exit(2)
	}

	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
		contracts.WithAudioBackend(*audioBackend),
		contracts.WithMIDIBackend(*midiBackend),
		contracts.WithMIDIPort(*midiPort),
		contracts.WithWindow(*window),
	}
	if *configPath != "" {
		opts = append(opts, contracts.WithConfigPath(*configPath))
	}
	if *logFile != "" {
		opts = append(opts, contracts.WithLogFile(*logFile))
	}

	e, err := sensors.NewEngine(opts...)
	if err != nil {
		log.Error("Failed to initialize engine", log.Field().Error("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Subscribe before Run: startup failures are emitted once, synchronously.
	fft, _ := e.Subscribe(contracts.ChannelFFT, 8)
	notes, _ := e.Subscribe(contracts.ChannelMIDI, 64)
	errs, _ := e.Subscribe(contracts.ChannelError, 4)

	go printEvents(fft, notes, errs, log)
	go readCommands(ctx, e, log)

	fmt.Println("Streaming audio and MIDI... type 'help' for commands, Ctrl+C to exit.")
	if err := e.Run(ctx); err != nil {
		log.Error("Engine stopped with errors", log.Field().Error("error", err))
	}
}

func printEvents(fft, notes, errs <-chan contracts.Event, log contracts.Logger) {
	var frames uint64
	for {
		select {
		case ev := <-fft:
			frames++
			frame := ev.Payload.(contracts.SpectrumFrame)
			if frames%50 == 0 {
				bin, peak := peakBin(frame)
				log.Debug("Spectrum",
					log.Field().Uint64("frame", frames),
					log.Field().Int("peakBin", bin),
					log.Field().Float64("peak", float64(peak)))
			}
		case ev := <-notes:
			note := ev.Payload.(contracts.MIDIEvent)
			log.Info("MIDI Event",
				log.Field().Uint8("Channel", note.Channel),
				log.Field().Uint8("Note", note.Note),
				log.Field().Uint8("Velocity", note.Velocity))
		case ev := <-errs:
			fmt.Fprintln(os.Stderr, ev.Payload)
		}
	}
}

// peakBin looks at the lower half; the upper half mirrors it for real input.
func peakBin(frame contracts.SpectrumFrame) (int, float32) {
	bin, peak := 0, float32(0)
	for i, v := range frame[:len(frame)/2] {
		if v > peak {
			bin, peak = i, v
		}
	}
	return bin, peak
}

func readCommands(ctx context.Context, e *engine.Engine, log contracts.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if err := runCommand(e, fields); err != nil {
			log.Warn("Command failed",
				log.Field().String("command", fields[0]),
				log.Field().Error("error", err))
		}
	}
}

func runCommand(e *engine.Engine, args []string) error {
	switch args[0] {
	case "opacity":
		if len(args) != 3 {
			return fmt.Errorf("usage: opacity <layer> <value>")
		}
		v, err := strconv.ParseFloat(args[2], 32)
		if err != nil {
			return err
		}
		e.SetLayerOpacity(args[1], float32(v))
	case "config":
		out, err := json.MarshalIndent(e.GetConfig(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	case "save":
		if err := e.SaveConfig(); err != nil {
			return err
		}
		fmt.Println("saved to", e.ConfigPath())
	case "ports":
		ports, err := e.ListMidiPorts()
		if err != nil {
			return err
		}
		for i, p := range ports {
			fmt.Printf("%d: %s\n", i, p)
		}
	case "port":
		if len(args) != 2 {
			return fmt.Errorf("usage: port <index>")
		}
		i, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		return e.SelectMidiPort(i)
	case "help":
		fmt.Println("commands: opacity <layer> <value> | config | save | ports | port <index>")
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}
