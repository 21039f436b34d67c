package commands

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/lint"
	"git.home.luguber.info/inful/syllabi/internal/render"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	Quiet  bool   `short:"q" help:"Quiet mode: only show errors, suppress warnings"`
	Slots  bool   `help:"List the template slots and exit"`
}

func (v *ValidateCmd) Run(ctx context.Context, global *Global, root *CLI) error {
	if v.Slots {
		_, _ = fmt.Fprintln(global.out(), strings.Join(render.SlotNames(), "\n"))
		return nil
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	svc, _ := newService(cfg)

	result, err := svc.Validate(ctx, cfg, &lint.Config{Quiet: v.Quiet, Format: v.Format})
	if err != nil {
		return err
	}
	if err := lint.NewFormatter(v.Format).Format(global.out(), result); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "formatting output").Build()
	}
	if result.HasErrors() {
		return errors.ValidationError(fmt.Sprintf("validation found %d errors", result.ErrorCount())).Build()
	}
	return nil
}
