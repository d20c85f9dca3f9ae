// ABOUTME: Entry point for the demo PCM bridge player
// ABOUTME: Plays a test tone or an MP3 file through the bridge
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hajimehoshi/go-mp3"
	"github.com/pcmbridge/pcmbridge-go/internal/tone"
	"github.com/pcmbridge/pcmbridge-go/internal/ui"
	"github.com/pcmbridge/pcmbridge-go/internal/version"
	"github.com/pcmbridge/pcmbridge-go/pkg/backend"
	"github.com/pcmbridge/pcmbridge-go/pkg/bridge"
	"github.com/pcmbridge/pcmbridge-go/pkg/plug"
)

var (
	device    = flag.String("device", "default", "Device name for the plug handle")
	file      = flag.String("file", "", "MP3 file to play (default: generated tone)")
	frequency = flag.Float64("freq", 440.0, "Tone frequency in Hz")
	rate      = flag.Int("rate", 48000, "Sample rate for tone playback")
	duration  = flag.Duration("duration", 5*time.Second, "Tone playback duration")
	logFile   = flag.String("log-file", "pcmbridge-player.log", "Log file path")
	noTUI     = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

// chunkFrames is how many frames each transfer pushes.
const chunkFrames = 1024

func main() {
	flag.Parse()

	useTUI := !*noTUI

	if useTUI {
		// TUI mode: log only to file
		f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("error opening log file: %v", err)
		}
		defer func() { _ = f.Close() }()
		log.SetOutput(f)
	}

	log.Printf("%s %s starting", version.Product, version.Version)

	if err := run(useTUI); err != nil {
		log.Printf("playback failed: %v", err)
		if useTUI {
			fmt.Fprintf(os.Stderr, "playback failed: %v\n", err)
		}
		os.Exit(1)
	}
}

// source supplies interleaved 16-bit PCM frames.
type source interface {
	Frames(frames int) []byte
	SampleRate() int
	Channels() int
}

// mp3Source adapts a go-mp3 decoder to the frame source interface.
// go-mp3 always decodes to 16-bit stereo.
type mp3Source struct {
	decoder *mp3.Decoder
	done    bool
}

func (s *mp3Source) Frames(frames int) []byte {
	if s.done {
		return nil
	}
	buf := make([]byte, frames*4)
	n, err := io.ReadFull(s.decoder, buf)
	if err != nil {
		s.done = true
	}
	return buf[:n-n%4]
}

func (s *mp3Source) SampleRate() int { return s.decoder.SampleRate() }
func (s *mp3Source) Channels() int   { return 2 }

func run(useTUI bool) error {
	var src source
	var sourceName string

	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", *file, err)
		}
		defer func() { _ = f.Close() }()

		decoder, err := mp3.NewDecoder(f)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", *file, err)
		}
		src = &mp3Source{decoder: decoder}
		sourceName = *file
	} else {
		src = tone.NewSource(*frequency, *rate, 2)
		sourceName = fmt.Sprintf("%.0f Hz tone", *frequency)
	}

	p, err := bridge.Create(*device, plug.Playback, 0, backend.NewOtoOpener())
	if err != nil {
		return fmt.Errorf("failed to create plug: %w", err)
	}
	log.Printf("Opened plug %s (%s)", p.Name(), p.ID())

	params := plug.Params{
		Access:     plug.AccessRWInterleaved,
		Format:     plug.FormatS16LE,
		Channels:   src.Channels(),
		Rate:       src.SampleRate(),
		BufferSize: 16384, // 64 KiB of 16-bit stereo
		Periods:    2,
	}
	if err := p.Configure(params); err != nil {
		return fmt.Errorf("failed to configure plug: %w", err)
	}
	if err := p.Prepare(); err != nil {
		return fmt.Errorf("failed to prepare stream: %w", err)
	}
	defer func() { _ = p.Close() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	var tuiProg *tea.Program
	if useTUI {
		tuiProg, err = ui.Run()
		if err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}
		go func() {
			// Quitting the TUI ends playback the same way an interrupt does.
			_, _ = tuiProg.Run()
			sig <- syscall.SIGINT
		}()
		defer tuiProg.Send(ui.QuitMsg{})
	}

	var totalFrames int64
	deadline := time.Now().Add(*duration)
	status := time.NewTicker(100 * time.Millisecond)
	defer status.Stop()

	sendStatus := func(state string) {
		pos, _ := p.Pointer()
		msg := ui.StatusMsg{
			DeviceName:    p.Name(),
			Format:        params.Format.String(),
			SampleRate:    params.Rate,
			Channels:      params.Channels,
			State:         state,
			Position:      pos,
			BufferSize:    params.BufferSize,
			FramesWritten: totalFrames,
			SourceName:    sourceName,
		}
		if tuiProg != nil {
			tuiProg.Send(msg)
		} else {
			log.Printf("state=%s position=%d written=%d", state, pos, totalFrames)
		}
	}

	log.Printf("Playing %s at %d Hz", sourceName, params.Rate)

	for {
		select {
		case <-sig:
			log.Printf("Interrupted, stopping")
			return p.Stop()
		case <-status.C:
			sendStatus("Started")
		default:
		}

		if *file == "" && time.Now().After(deadline) {
			break
		}

		buf := src.Frames(chunkFrames)
		if len(buf) == 0 {
			break
		}
		frames := len(buf) / params.FrameBytes()

		for frames > 0 {
			n, err := p.Writei(buf, frames)
			if errors.Is(err, bridge.ErrWouldBlock) {
				time.Sleep(time.Millisecond)
				continue
			}
			if err != nil {
				return fmt.Errorf("transfer failed: %w", err)
			}
			totalFrames += int64(n)
			buf = buf[n*params.FrameBytes():]
			frames -= n
		}
	}

	log.Printf("Draining %d frames", totalFrames)
	sendStatus("Draining")
	if err := p.Drain(); err != nil {
		return fmt.Errorf("drain failed: %w", err)
	}
	if err := p.Stop(); err != nil {
		return fmt.Errorf("stop failed: %w", err)
	}
	sendStatus("Stopped")

	log.Printf("Playback complete: %d frames", totalFrames)
	return nil
}
