package config

import (
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/syllabi/internal/retry"
)

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

// defaultAppliers run in order; later domains may depend on earlier ones.
var defaultAppliers = []DefaultApplier{
	&dataDefaultApplier{},
	&outputDefaultApplier{},
	&publishDefaultApplier{},
	&ledgerDefaultApplier{},
	&notifyDefaultApplier{},
	&watchDefaultApplier{},
}

func applyDefaults(cfg *Config) {
	for _, a := range defaultAppliers {
		a.ApplyDefaults(cfg)
	}
}

type dataDefaultApplier struct{}

func (dataDefaultApplier) Domain() string { return "data" }

func (dataDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Data.Curriculum == "" {
		cfg.Data.Curriculum = "curriculum.yaml"
	}
	if cfg.Data.Lecturers == "" {
		cfg.Data.Lecturers = "lecturers.yaml"
	}
	if r := cfg.Data.Repository; r != nil {
		if r.Branch == "" {
			r.Branch = "main"
		}
		if r.Dir == "" {
			r.Dir = filepath.Join(".syllabi", "data")
		}
		if r.Token != "" && r.Username == "" {
			r.Username = "git"
		}
	}
}

type outputDefaultApplier struct{}

func (outputDefaultApplier) Domain() string { return "output" }

func (outputDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "generated"
	}
	if cfg.Output.Index == "" {
		cfg.Output.Index = "index.html"
	}
	if cfg.Output.Report == "" {
		cfg.Output.Report = "report.html"
	}
}

type publishDefaultApplier struct{}

func (publishDefaultApplier) Domain() string { return "publish" }

func (publishDefaultApplier) ApplyDefaults(cfg *Config) {
	p := &cfg.Publish
	if t, ok := targets.Normalize(string(p.Target)); ok {
		p.Target = t
	}
	if p.Target == "" {
		switch {
		case p.WordPress.BaseURL != "":
			p.Target = TargetWordPress
		case p.SFTP.Host != "" && p.SFTP.BaseURL != "":
			p.Target = TargetSFTP
		default:
			p.Target = TargetNone
		}
	}
	if p.Concurrency == 0 {
		p.Concurrency = 4
	}
	if p.LinksFile == "" {
		p.LinksFile = "links.yaml"
	}

	wp := &p.WordPress
	if wp.Status == "" {
		wp.Status = "publish"
	}
	if wp.IndexParentID == 0 {
		wp.IndexParentID = 16
	}
	if wp.Timeout <= 0 {
		wp.Timeout = 30 * time.Second
	}

	sf := &p.SFTP
	if sf.Port == 0 {
		sf.Port = 22
	}
	if sf.Timeout <= 0 {
		sf.Timeout = 30 * time.Second
	}

	def := retry.DefaultPolicy()
	r := &p.Retry
	if r.Mode == "" {
		r.Mode = def.Mode
	} else if m := retry.ParseMode(string(r.Mode)); m != "" {
		r.Mode = m
	}
	if r.Initial == 0 {
		r.Initial = def.Initial
	}
	if r.Max == 0 {
		r.Max = def.Max
	}
}

type ledgerDefaultApplier struct{}

func (ledgerDefaultApplier) Domain() string { return "ledger" }

func (ledgerDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Ledger.Path == "" && cfg.Publish.SkipUnchanged {
		cfg.Ledger.Path = filepath.Join(".syllabi", "ledger.db")
	}
}

type notifyDefaultApplier struct{}

func (notifyDefaultApplier) Domain() string { return "notify" }

func (notifyDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "syllabi.published"
	}
}

type watchDefaultApplier struct{}

func (watchDefaultApplier) Domain() string { return "watch" }

func (watchDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
}
