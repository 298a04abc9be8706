// Package main provides the sonido-pitch command line tool.
//
// Usage:
//
//	sonido-pitch listen [flags]
//	sonido-pitch feed --notes E2,A2,D3 [flags]
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-pitch/detect"
	"github.com/RyanBlaney/sonido-pitch/logging"
)

var rootCmd = &cobra.Command{
	Use:   "sonido-pitch",
	Short: "Real-time monophonic pitch detection",
	Long: `sonido-pitch detects the musical pitch of monophonic audio and prints
each stable note together with its offset in cents from equal temperament.

The listen command reads from the default microphone (or a synthetic tone),
and the feed command replays a scripted note sequence without any audio
hardware.`,
	SilenceUsage: true,
}

var (
	flagConfig  string
	flagVerbose bool
)

var (
	noteStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
	inTuneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	offTuneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB454"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true)
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(feedCmd)
}

func loadConfig() (detect.Config, error) {
	if flagVerbose {
		logging.SetLevel(logging.DebugLevel)
	}
	if flagConfig == "" {
		return detect.DefaultConfig(), nil
	}
	cfg, err := detect.LoadConfig(flagConfig)
	if err != nil {
		return detect.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// centsLabel renders a cents offset, colored by how close it sits to the
// nominal pitch
func centsLabel(cents float64) string {
	label := fmt.Sprintf("%+.0f cents", cents)
	if cents < 5 && cents > -5 {
		return inTuneStyle.Render(label)
	}
	return offTuneStyle.Render(label)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
