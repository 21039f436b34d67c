package commands

import (
	"fmt"

	"git.home.luguber.info/inful/syllabi/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(global *Global, root *CLI) error {
	w := global.out()
	_, _ = fmt.Fprintf(w, "Writing configuration to %s\n", root.Config)
	if err := config.Write(root.Config, config.Default(), i.Force); err != nil {
		_, _ = fmt.Fprintln(w, "Initialization failed")
		return err
	}
	_, _ = fmt.Fprintln(w, "initialized successfully")
	return nil
}
