package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-pitch/detect"
)

var (
	flagNotes string
	flagDelay time.Duration
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Replay a scripted note sequence without audio hardware",
	Long: `Feed drives the listener callbacks with a scripted sequence of note
names spaced by a fixed delay, so UI layers can be developed against the
engine without a microphone.`,
	RunE: runFeed,
}

func init() {
	feedCmd.Flags().StringVar(&flagNotes, "notes", "E2,A2,D3,G3,B3,E4", "comma separated note names to replay")
	feedCmd.Flags().DurationVar(&flagDelay, "delay", 500*time.Millisecond, "delay between notes")
}

// feedPrinter prints each replayed note and closes done after the last
// one. The engine dispatches callbacks from a single goroutine, so the
// counter needs no locking.
type feedPrinter struct {
	remaining int
	done      chan struct{}
}

func (f *feedPrinter) OnStableNote(name string, cents float64) {
	fmt.Printf("%s %s\n", noteStyle.Render(name), centsLabel(cents))
	f.remaining--
	if f.remaining == 0 {
		close(f.done)
	}
}

func runFeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var names []string
	for _, name := range strings.Split(flagNotes, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("no notes to feed")
	}

	listener := &feedPrinter{remaining: len(names), done: make(chan struct{})}
	engine, err := detect.NewEngine(cfg, listener)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	if err := engine.StartFeed(names, flagDelay); err != nil {
		return fmt.Errorf("failed to start feed: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-listener.done:
	case <-sig:
		fmt.Println()
	}

	return engine.Stop()
}
