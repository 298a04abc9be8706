package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-pitch/capture"
	"github.com/RyanBlaney/sonido-pitch/detect"
	"github.com/RyanBlaney/sonido-pitch/music"
)

var (
	flagAlgorithm string
	flagDemoFreq  float64
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Detect pitch from the default microphone",
	Long: `Listen opens the default input device and prints every stable note the
engine confirms, together with its cents offset and the nearest standard
guitar string.

A synthetic tone can stand in for the microphone with --demo-freq, which
drives the identical pipeline without audio hardware.`,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().StringVar(&flagAlgorithm, "algorithm", "", "pitch algorithm, hps or nsdf (overrides config)")
	listenCmd.Flags().Float64Var(&flagDemoFreq, "demo-freq", 0, "replace the microphone with a sine tone at this frequency in Hz")
}

// consoleListener prints stable notes as the engine confirms them.
type consoleListener struct {
	tuning music.Tuning
}

// OnStableNote is a no-op; OnStablePitch receives the same event with the
// frequency attached and does the printing
func (c *consoleListener) OnStableNote(name string, cents float64) {}

func (c *consoleListener) OnStablePitch(name string, frequency, cents float64) {
	hint := ""
	if target, ok := c.tuning.Nearest(frequency); ok {
		hint = hintStyle.Render(fmt.Sprintf("  %s string %+.0f cents", target.Label, target.CentsOff(frequency)))
	}
	fmt.Printf("%s %s  %.2f Hz%s\n", noteStyle.Render(name), centsLabel(cents), frequency, hint)
}

func (c *consoleListener) OnPermissionDenied() {
	fmt.Println(errorStyle.Render("microphone unavailable, check input device permissions"))
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagAlgorithm != "" {
		cfg.Algorithm = flagAlgorithm
	}

	engine, err := detect.NewEngine(cfg, &consoleListener{tuning: music.StandardGuitar()})
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	var src capture.Source
	if flagDemoFreq > 0 {
		sine := capture.NewSineSource(flagDemoFreq)
		sine.Realtime = true
		src = sine
		fmt.Printf("Demo mode, synthesizing a %.1f Hz tone.\n", flagDemoFreq)
	} else {
		mic, err := capture.NewMicrophone(cfg.HopSize)
		if err != nil {
			return fmt.Errorf("failed to create microphone: %w", err)
		}
		src = mic
	}

	if err := engine.StartCapture(src); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}

	fmt.Println("Listening, press Ctrl-C to stop.")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	fmt.Println()

	return engine.Stop()
}
