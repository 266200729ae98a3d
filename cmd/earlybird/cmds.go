package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/cicosss/earlybird/internal/config"
	"github.com/cicosss/earlybird/internal/secrets"
)

// boolFlag reads a bool flag, tolerating commands (the menu's root)
// that never declared it.
func boolFlag(fs *pflag.FlagSet, name string) bool {
	v, err := fs.GetBool(name)
	return err == nil && v
}

// runLoop is the long-lived scheduler: one cycle per interval until the
// process is signalled.
func runLoop(cmd *cobra.Command, _ []string) error {
	emergency := boolFlag(cmd.Flags(), "emergency")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, true)
	if err != nil {
		return err
	}

	go func() {
		if err := a.ops.Start(); err != nil {
			a.logger().Error().Err(err).Msg("ops http server failed")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.ops.Shutdown(shutdownCtx)
	}()

	a.logger().Info().Dur("interval", a.cfg.CycleInterval).Bool("emergency", emergency).Msg("scheduler loop starting")

	ticker := time.NewTicker(a.cfg.CycleInterval)
	defer ticker.Stop()

	a.pipeline.RunCycle(ctx, emergency)
	for {
		select {
		case <-ctx.Done():
			a.logger().Info().Msg("scheduler loop stopping")
			return nil
		case <-ticker.C:
			a.pipeline.RunCycle(ctx, emergency)
		}
	}
}

// runScan executes one cycle and exits.
func runScan(cmd *cobra.Command, _ []string) error {
	emergency := boolFlag(cmd.Flags(), "emergency")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, true)
	if err != nil {
		return err
	}

	res := a.pipeline.RunCycle(ctx, emergency)
	fmt.Printf("cycle %d: %d matches across %d leagues, %d analyzed, %d alerts (%.1fs)\n",
		res.Cycle, res.MatchesSeen, len(res.Leagues), res.Analyzed, res.AlertsEmitted, res.Elapsed.Seconds())
	return nil
}

// runAnalyze re-runs the pipeline for one stored match and prints the
// trace.
func runAnalyze(cmd *cobra.Command, args []string) error {
	matchID := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, true)
	if err != nil {
		return err
	}

	matches, err := a.store.ReadPendingMatches(ctx, time.Now().UTC(), a.cfg.Gates.AnalyzableHorizon)
	if err != nil {
		return fmt.Errorf("read pending matches: %w", err)
	}
	for _, m := range matches {
		if m.ID != matchID {
			continue
		}
		result, err := a.pipeline.AnalyzeOne(ctx, m)
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return nil
	}
	return fmt.Errorf("match %s not found in the analyzable window", matchID)
}

// runProvidersHealth prints the federation state as a table.
func runProvidersHealth(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := buildApp(ctx, false)
	if err != nil {
		return err
	}

	statuses := a.budgets.AllStatus()
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tMONTHLY\tDAILY\tUTIL%\tTIER\tCIRCUIT\tKEYS")
	for _, name := range names {
		st := statuses[name]
		tier := "normal"
		if st.Degraded {
			tier = "degraded"
		}
		if st.Disabled {
			tier = "disabled"
		}
		circuitState := "-"
		if br, ok := a.circuits[name]; ok {
			circuitState = br.State().String()
		}
		keys := "-"
		if rot, ok := a.rotators[name]; ok {
			ks := rot.Status()
			keys = fmt.Sprintf("%d", ks.PoolSize)
			if !ks.AnyAvailable && ks.PoolSize > 0 {
				keys += " (exhausted)"
			}
		}
		limit := "unlimited"
		if st.MonthlyLimit > 0 {
			limit = fmt.Sprintf("%d/%d", st.MonthlyUsed, st.MonthlyLimit)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f\t%s\t%s\t%s\n",
			name, limit, st.DailyUsed, st.Percentage, tier, circuitState, keys)
	}
	return w.Flush()
}

// runSpec prints the effective configuration with secrets elided.
func runSpec(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(context.Background(), configPath, secrets.NewEnvProvider(""))
	if err != nil {
		return err
	}

	// Key material never reaches stdout; only pool sizes do.
	type providerView struct {
		Host         string `yaml:"host"`
		KeyPoolSize  int    `yaml:"key_pool_size"`
		MonthlyLimit int64  `yaml:"monthly_limit"`
	}
	view := struct {
		Providers map[string]providerView `yaml:"providers"`
		Gates     config.Gates            `yaml:"gates"`
		Leagues   any                     `yaml:"leagues"`
	}{
		Providers: make(map[string]providerView),
		Gates:     cfg.Gates,
		Leagues:   cfg.Leagues,
	}
	for name, pc := range cfg.Providers {
		view.Providers[name] = providerView{
			Host:         pc.Host,
			KeyPoolSize:  len(pc.Keys),
			MonthlyLimit: pc.MonthlyLimit,
		}
	}

	out, err := yaml.Marshal(view)
	if err != nil {
		return err
	}
	fmt.Println(secrets.Redact(string(out)))
	return nil
}
