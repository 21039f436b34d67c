package commands

import (
	"fmt"

	"git.home.luguber.info/inful/syllabi/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run(global *Global) error {
	_, _ = fmt.Fprintln(global.out(), version.String())
	return nil
}
