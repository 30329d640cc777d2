package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/walletboot/internal/eventstore"
	"git.home.luguber.info/inful/walletboot/internal/startup"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" help:"Number of runs to show" default:"20"`
	JSON  bool `help:"Print run summaries as JSON"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	journal, err := startup.OpenJournal(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()
	return RunHistory(context.Background(), out(g), journal, h.Limit, h.JSON)
}

// RunHistory prints the newest limit finished runs from journal.
func RunHistory(ctx context.Context, w io.Writer, journal eventstore.Store, limit int, asJSON bool) error {
	projection := eventstore.NewRunHistoryProjection(journal, limit)
	if err := projection.Rebuild(ctx); err != nil {
		return err
	}
	history := projection.GetHistory()

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}
	if len(history) == 0 {
		_, _ = fmt.Fprintln(w, "no runs recorded")
		return nil
	}
	for _, run := range history {
		_, _ = fmt.Fprintf(w, "%s  %s  %-9s", run.StartedAt.Format("2006-01-02 15:04:05"), run.RunID, run.Status)
		if len(run.Actions) > 0 {
			_, _ = fmt.Fprintf(w, "  %s", strings.Join(run.Actions, ","))
		}
		if run.ErrorMessage != "" {
			_, _ = fmt.Fprintf(w, "  error: %s", run.ErrorMessage)
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}
