package lint

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/syllabi/internal/reconcile"
)

// UnknownKeyRule reports top-level curriculum keys that are ignored.
type UnknownKeyRule struct{}

func (UnknownKeyRule) Name() string { return "unknown-key" }

func (UnknownKeyRule) Check(in *Input) []Issue {
	var issues []Issue
	for _, key := range in.UnknownKeys {
		issues = append(issues, Issue{
			Subject:  key,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("curriculum key %q is not recognized and was ignored", key),
			Fix:      "rename the section or remove it",
		})
	}
	return issues
}

// UnmappedDisciplineRule reports disciplines without competency or program-result mappings.
type UnmappedDisciplineRule struct{}

func (UnmappedDisciplineRule) Name() string { return "unmapped-discipline" }

func (UnmappedDisciplineRule) Check(in *Input) []Issue {
	var issues []Issue
	for _, code := range in.Catalog.Stats().Unmapped {
		issues = append(issues, Issue{
			Subject:  code,
			Severity: SeverityWarning,
			Message:  "discipline has no competency or program-result mapping",
			Fix:      "add an entry under mappings",
		})
	}
	return issues
}

// MissingDescriptionRule notes disciplines whose page will have no description.
type MissingDescriptionRule struct{}

func (MissingDescriptionRule) Name() string { return "missing-description" }

func (MissingDescriptionRule) Check(in *Input) []Issue {
	var issues []Issue
	for _, d := range in.Catalog.All() {
		if d.Description != "" {
			continue
		}
		issues = append(issues, Issue{
			Subject:  d.Code,
			Severity: SeverityInfo,
			Message:  "discipline has no description",
		})
	}
	return issues
}

// UnusedOutcomeRule notes competencies and program results no discipline maps to.
type UnusedOutcomeRule struct{}

func (UnusedOutcomeRule) Name() string { return "unused-outcome" }

func (UnusedOutcomeRule) Check(in *Input) []Issue {
	stats := in.Catalog.Stats()
	var issues []Issue
	for _, u := range stats.CompetencyUsage {
		if u.Count == 0 {
			issues = append(issues, Issue{Subject: u.ID, Severity: SeverityInfo, Message: "competency is not mapped to any discipline"})
		}
	}
	for _, u := range stats.ProgramResultUsage {
		if u.Count == 0 {
			issues = append(issues, Issue{Subject: u.ID, Severity: SeverityInfo, Message: "program result is not mapped to any discipline"})
		}
	}
	return issues
}

// UnknownTokenRule reports template tokens that render verbatim.
type UnknownTokenRule struct{}

func (UnknownTokenRule) Name() string { return "unknown-token" }

func (UnknownTokenRule) Check(in *Input) []Issue {
	var issues []Issue
	for _, tpl := range in.Templates {
		if tpl == nil {
			continue
		}
		for _, name := range tpl.UnknownTokens() {
			issues = append(issues, Issue{
				Subject:  tpl.Name(),
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("token %q is not a known slot or section and is left as is", name),
				Fix:      "check the spelling against `syllabi validate --slots`",
			})
		}
	}
	return issues
}

// StaleLinkRule reports published links whose code is no longer in the catalog.
type StaleLinkRule struct{}

func (StaleLinkRule) Name() string { return "stale-link" }

func (StaleLinkRule) Check(in *Input) []Issue {
	var stale []string
	for code := range in.Links {
		if _, err := in.Catalog.Get(code); err != nil {
			stale = append(stale, code)
		}
	}
	sort.Strings(stale)
	issues := make([]Issue, 0, len(stale))
	for _, code := range stale {
		issues = append(issues, Issue{
			Subject:  code,
			Severity: SeverityWarning,
			Message:  "links file has a URL for a code that is not in the catalog",
			Fix:      "remove the entry from the links file",
		})
	}
	return issues
}

// IndexCoverageRule compares the index document's discipline anchors with the catalog.
type IndexCoverageRule struct{}

func (IndexCoverageRule) Name() string { return "index-coverage" }

func (IndexCoverageRule) Check(in *Input) []Issue {
	if in.Index == nil {
		return nil
	}
	anchors, err := reconcile.Scan(in.Index, in.Links)
	if err != nil {
		return []Issue{{
			Subject:  in.IndexFile,
			Severity: SeverityError,
			Message:  "index document cannot be scanned: " + err.Error(),
		}}
	}

	linked := make(map[string]bool, len(anchors))
	var issues []Issue
	for _, a := range anchors {
		if linked[a.Code] {
			continue
		}
		linked[a.Code] = true
		if _, err := in.Catalog.Get(a.Code); err != nil {
			issues = append(issues, Issue{
				Subject:  a.Code,
				Severity: SeverityWarning,
				Message:  "index links a code that is not in the catalog",
			})
		}
	}
	for _, d := range in.Catalog.All() {
		if !linked[d.Code] {
			issues = append(issues, Issue{
				Subject:  d.Code,
				Severity: SeverityWarning,
				Message:  "discipline has no anchor in the index",
				Fix:      "regenerate the index with `syllabi index`",
			})
		}
	}
	return issues
}
