package build

import (
	"log/slog"

	"git.home.luguber.info/inful/syllabi/internal/config"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/ledger"
	"git.home.luguber.info/inful/syllabi/internal/logfields"
	"git.home.luguber.info/inful/syllabi/internal/notify"
	"git.home.luguber.info/inful/syllabi/internal/publish"
)

// NewPublisher creates the upload target selected by publish.target.
func NewPublisher(cfg *config.Config) (publish.Publisher, error) {
	switch cfg.Publish.Target {
	case config.TargetWordPress:
		wp := cfg.Publish.WordPress
		return publish.NewWordPressClient(publish.WordPressConfig{
			BaseURL:  wp.BaseURL,
			User:     wp.User,
			Password: wp.Password,
			Status:   wp.Status,
			Timeout:  wp.Timeout,
		})
	case config.TargetSFTP:
		sc := cfg.Publish.SFTP
		return publish.NewSFTPPublisher(publish.SFTPConfig{
			Host:                  sc.Host,
			Port:                  sc.Port,
			User:                  sc.User,
			Password:              sc.Password,
			RemoteDir:             sc.RemoteDir,
			BaseURL:               sc.BaseURL,
			KnownHosts:            sc.KnownHosts,
			InsecureIgnoreHostKey: sc.InsecureIgnoreHostKey,
			Timeout:               sc.Timeout,
		})
	default:
		return nil, errors.ConfigError("no publish target configured").
			WithContext("target", string(cfg.Publish.Target)).
			UserAction().
			Build()
	}
}

// NewNotifier connects to NATS when notify.nats_url is set. Notifications are
// best effort: a failed connection is logged and disables them.
func NewNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Notify.NATSURL == "" {
		return notify.Nop{}
	}
	n, err := notify.NewNATSNotifier(cfg.Notify.NATSURL, cfg.Notify.Subject)
	if err != nil {
		slog.Warn("Publish notifications disabled", logfields.URL(cfg.Notify.NATSURL), logfields.Error(err))
		return notify.Nop{}
	}
	return n
}

// openLedger opens the publish ledger, nil when none is configured.
func openLedger(cfg *config.Config) (ledger.Store, error) {
	if cfg.Ledger.Path == "" {
		return nil, nil
	}
	return ledger.NewSQLiteStore(cfg.Ledger.Path)
}
