package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/walletboot/internal/config"
	"git.home.luguber.info/inful/walletboot/internal/startup"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	JSON bool `help:"Print the run report as JSON"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunCheck(ctx, out(g), cfg, c.JSON)
}

// RunCheck runs the startup checks once against the configured stores.
func RunCheck(ctx context.Context, w io.Writer, cfg *config.Config, asJSON bool) error {
	stores, err := startup.OpenStores(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() { _ = stores.Close() }()

	runner, err := startup.NewRunner(cfg, stores, nil, slog.Default())
	if err != nil {
		return err
	}
	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	return printReport(w, report, asJSON)
}

func printReport(w io.Writer, report startup.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	_, _ = fmt.Fprintf(w, "run %s\n", report.RunID)
	if report.Reset {
		_, _ = fmt.Fprintln(w, "wallet reset: keychain was empty")
	}
	if len(report.Actions) == 0 {
		_, _ = fmt.Fprintln(w, "no actions")
	}
	for _, a := range report.Actions {
		if a.Payload != nil {
			_, _ = fmt.Fprintf(w, "  %s %v\n", a.Type, a.Payload)
			continue
		}
		_, _ = fmt.Fprintf(w, "  %s\n", a.Type)
	}
	v := report.State.Settings.Versions
	_, _ = fmt.Fprintf(w, "app %s (build %d)\n", v.Version, v.BuildNumber)
	return nil
}
