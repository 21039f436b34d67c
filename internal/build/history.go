package build

import (
	"context"

	"git.home.luguber.info/inful/syllabi/internal/config"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/ledger"
	"git.home.luguber.info/inful/syllabi/internal/publish"
)

// HistoryRequest selects records from the publish ledger.
type HistoryRequest struct {
	Config *config.Config
	// Code lists the uploads of one page instead of the runs. "index" selects the
	// program index page.
	Code  string
	Limit int
}

// HistoryResult holds either runs or the entries of one page, newest first.
type HistoryResult struct {
	Runs    []ledger.Run
	Entries []ledger.Entry
}

// History reads the publish ledger.
func (s *Service) History(ctx context.Context, req HistoryRequest) (*HistoryResult, error) {
	store, err := openLedger(req.Config)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.ConfigError("no publish ledger configured (ledger.path)").Build()
	}
	defer func() { _ = store.Close() }()

	if req.Code == "" {
		runs, err := store.Runs(ctx, req.Limit)
		if err != nil {
			return nil, err
		}
		return &HistoryResult{Runs: runs}, nil
	}

	code := req.Code
	if code == "index" {
		code = publish.IndexKey
	}
	entries, err := store.History(ctx, code)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	return &HistoryResult{Entries: entries}, nil
}
