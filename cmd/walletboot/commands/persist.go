package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"git.home.luguber.info/inful/walletboot/internal/config"
	"git.home.luguber.info/inful/walletboot/internal/kvstore"
	"git.home.luguber.info/inful/walletboot/internal/persist"
)

// PersistCmd groups the persisted state subcommands.
type PersistCmd struct {
	Keys  PersistKeysCmd  `cmd:"" help:"List every key in the key-value store"`
	Get   PersistGetCmd   `cmd:"" help:"Print persisted app state by logical key"`
	Clear PersistClearCmd `cmd:"" help:"Remove persisted app state, leaving unrelated keys"`
}

type PersistKeysCmd struct {
	Relevant bool `help:"Only list keys that hold persisted app state"`
}

type PersistGetCmd struct{}

type PersistClearCmd struct{}

func (p *PersistKeysCmd) Run(g *Global, root *CLI) error {
	return withAdapter(root, func(ctx context.Context, a *persist.Adapter) error {
		return RunPersistKeys(ctx, out(g), a, p.Relevant)
	})
}

func (p *PersistGetCmd) Run(g *Global, root *CLI) error {
	return withAdapter(root, func(ctx context.Context, a *persist.Adapter) error {
		return RunPersistGet(ctx, out(g), a)
	})
}

func (p *PersistClearCmd) Run(g *Global, root *CLI) error {
	return withAdapter(root, func(ctx context.Context, a *persist.Adapter) error {
		return RunPersistClear(ctx, out(g), a)
	})
}

func withAdapter(root *CLI, fn func(context.Context, *persist.Adapter) error) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	return withConfiguredAdapter(context.Background(), cfg, fn)
}

func withConfiguredAdapter(ctx context.Context, cfg *config.Config, fn func(context.Context, *persist.Adapter) error) error {
	kv, err := kvstore.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()
	return fn(ctx, persist.New(kv))
}

func RunPersistKeys(ctx context.Context, w io.Writer, a *persist.Adapter, relevantOnly bool) error {
	var (
		keys []string
		err  error
	)
	if relevantOnly {
		keys, err = a.RelevantKeys(ctx)
	} else {
		keys, err = a.GetKeys(ctx)
	}
	if err != nil {
		return err
	}
	for _, k := range keys {
		_, _ = fmt.Fprintln(w, k)
	}
	return nil
}

func RunPersistGet(ctx context.Context, w io.Writer, a *persist.Adapter) error {
	state, err := a.Get(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

func RunPersistClear(ctx context.Context, w io.Writer, a *persist.Adapter) error {
	keys, err := a.RelevantKeys(ctx)
	if err != nil {
		return err
	}
	if err := a.Clear(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "removed %d persisted keys\n", len(keys))
	return nil
}
