package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "earlybird"
	version = "v1.4.0"
)

var configPath string

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Pre-match football betting intelligence pipeline",
		Version: version,
		Long: `earlybird scans upcoming fixtures, fuses market movement, injuries,
fatigue, weather and end-of-season incentives through a Poisson/Kelly
quantitative core and an AI triangulation layer, and emits one scored
recommendation per match.

Run 'earlybird' in a terminal for the interactive menu; subcommands are
the automation surface.`,
		Run: runDefaultEntry,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the YAML configuration file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler loop",
		Long:  "Run the full scheduling loop: one cycle per interval until interrupted.",
		RunE:  runLoop,
	}
	runCmd.Flags().Bool("emergency", false, "Emergency mode: poll tier-1 leagues only")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a single one-shot cycle",
		Long:  "Run one scheduling cycle across the current league selection and exit.",
		RunE:  runScan,
	}
	scanCmd.Flags().Bool("emergency", false, "Emergency mode: poll tier-1 leagues only")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <match-id>",
		Short: "Analyze a single stored match with a verbose trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "Provider federation operations",
	}
	providersCmd.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Print budget, circuit, and key-pool state per provider",
		RunE:  runProvidersHealth,
	})

	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Print the effective configuration",
		RunE:  runSpec,
	}

	rootCmd.AddCommand(runCmd, scanCmd, analyzeCmd, providersCmd, specCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runDefaultEntry routes a bare invocation: menu on a TTY, guidance
// otherwise.
func runDefaultEntry(cmd *cobra.Command, args []string) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintf(os.Stderr, "Interactive menu requires a TTY terminal.\n")
		fmt.Fprintf(os.Stderr, "Use subcommands for non-interactive automation:\n\n")
		fmt.Fprintf(os.Stderr, "  earlybird run                 # scheduler loop\n")
		fmt.Fprintf(os.Stderr, "  earlybird scan                # one-shot cycle\n")
		fmt.Fprintf(os.Stderr, "  earlybird providers health    # federation status\n")
		fmt.Fprintf(os.Stderr, "  earlybird --help\n")
		os.Exit(2)
	}
	runMenu(cmd)
}

func runMenu(cmd *cobra.Command) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println()
		fmt.Println("earlybird " + version)
		fmt.Println("  1) run        - scheduler loop")
		fmt.Println("  2) scan       - one-shot cycle")
		fmt.Println("  3) providers  - federation health")
		fmt.Println("  4) spec       - effective configuration")
		fmt.Println("  q) quit")
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		var runErr error
		switch strings.TrimSpace(line) {
		case "1":
			runErr = runLoop(cmd, nil)
		case "2":
			runErr = runScan(cmd, nil)
		case "3":
			runErr = runProvidersHealth(cmd, nil)
		case "4":
			runErr = runSpec(cmd, nil)
		case "q", "quit", "exit":
			return
		default:
			continue
		}
		if runErr != nil {
			log.Error().Err(runErr).Msg("command failed")
		}
	}
}
