package lint

import (
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

// Linter applies a fixed set of rules to a curriculum.
type Linter struct {
	cfg   *Config
	rules []Rule
}

// NewLinter creates a new linter with the given configuration and the default rules.
func NewLinter(cfg *Config) *Linter {
	if cfg == nil {
		cfg = &Config{Format: "text"}
	}
	return &Linter{
		cfg: cfg,
		rules: []Rule{
			UnknownKeyRule{},
			UnmappedDisciplineRule{},
			MissingDescriptionRule{},
			UnusedOutcomeRule{},
			UnknownTokenRule{},
			StaleLinkRule{},
			IndexCoverageRule{},
		},
	}
}

// Rules returns the rules applied by Lint, in order.
func (l *Linter) Rules() []Rule {
	return l.rules
}

// Lint runs every rule over in.
func (l *Linter) Lint(in *Input) (*Result, error) {
	if in == nil || in.Catalog == nil {
		return nil, errors.InternalError("lint input requires a catalog").Build()
	}
	result := &Result{Issues: []Issue{}, Disciplines: in.Catalog.Len()}
	for _, rule := range l.rules {
		for _, issue := range rule.Check(in) {
			if l.cfg.Quiet && issue.Severity != SeverityError {
				continue
			}
			issue.Rule = rule.Name()
			result.Issues = append(result.Issues, issue)
		}
	}
	return result, nil
}
