package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"git.home.luguber.info/inful/walletboot/internal/config"
)

// DefaultConfigFile is written by init when no --config is given.
const DefaultConfigFile = "walletboot.yaml"

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Output directory for generated config file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := root.Config
	if i.Output != "" {
		path = filepath.Join(i.Output, DefaultConfigFile)
	}
	if path == "" {
		path = DefaultConfigFile
	}
	return RunInit(out(g), path, i.Force)
}

func RunInit(w io.Writer, configPath string, force bool) error {
	_, _ = fmt.Fprintf(w, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		_, _ = fmt.Fprintln(w, "Initialization failed")
		return err
	}
	_, _ = fmt.Fprintln(w, "initialized successfully")
	return nil
}
