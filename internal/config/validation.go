package config

import (
	"fmt"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/retry"
)

// Validate checks a configuration after defaults have been applied.
func Validate(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(cfg *Config) *configurationValidator {
	return &configurationValidator{config: cfg}
}

func (cv *configurationValidator) validate() error {
	for _, check := range []func() error{
		cv.validateData,
		cv.validateOutput,
		cv.validatePublish,
		cv.validateRetry,
		cv.validateNotify,
		cv.validateWatch,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateData() error {
	d := cv.config.Data
	if strings.TrimSpace(d.Curriculum) == "" {
		return errors.ValidationError("data.curriculum is required").Build()
	}
	if r := d.Repository; r != nil && strings.TrimSpace(r.URL) == "" {
		return errors.ValidationError("data.repository.url is required when a repository is configured").Build()
	}
	return nil
}

func (cv *configurationValidator) validateOutput() error {
	o := cv.config.Output
	if strings.ContainsAny(o.Index, `/\`) {
		return errors.ValidationError("output.index must be a file name").
			WithContext("index", o.Index).
			Build()
	}
	if strings.ContainsAny(o.Report, `/\`) {
		return errors.ValidationError("output.report must be a file name").
			WithContext("report", o.Report).
			Build()
	}
	if o.Report == o.Index {
		return errors.ValidationError("output.report and output.index must differ").
			WithContext("report", o.Report).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validatePublish() error {
	p := cv.config.Publish
	if p.Concurrency < 1 {
		return errors.ValidationError("publish.concurrency must be at least 1").
			WithContext("concurrency", p.Concurrency).
			Build()
	}
	switch p.Target {
	case TargetNone:
		return nil
	case TargetWordPress:
		return cv.validateWordPress()
	case TargetSFTP:
		return cv.validateSFTP()
	default:
		return errors.ConfigError(fmt.Sprintf("unsupported publish target: %s", p.Target)).
			WithContext("target", string(p.Target)).
			Build()
	}
}

func (cv *configurationValidator) validateWordPress() error {
	wp := cv.config.Publish.WordPress
	if err := validateHTTPURL("publish.wordpress.base_url", wp.BaseURL); err != nil {
		return err
	}
	if wp.User == "" || wp.Password == "" {
		return errors.ConfigError("wordpress credentials are required (publish.wordpress.user/password or " +
			EnvWordPressUser + "/" + EnvWordPressPassword + ")").Build()
	}
	switch wp.Status {
	case "publish", "draft", "pending", "private":
	default:
		return errors.ValidationError("unsupported wordpress page status: " + wp.Status).Build()
	}
	return nil
}

func (cv *configurationValidator) validateSFTP() error {
	sf := cv.config.Publish.SFTP
	if sf.Host == "" {
		return errors.ConfigError("publish.sftp.host is required (or " + EnvSFTPHost + ")").Build()
	}
	if sf.User == "" {
		return errors.ConfigError("publish.sftp.user is required (or " + EnvSFTPUser + ")").Build()
	}
	if sf.Port < 1 || sf.Port > 65535 {
		return errors.ValidationError("publish.sftp.port out of range").WithContext("port", sf.Port).Build()
	}
	if sf.RemoteDir == "" {
		return errors.ValidationError("publish.sftp.remote_dir is required").Build()
	}
	if err := validateHTTPURL("publish.sftp.base_url", sf.BaseURL); err != nil {
		return err
	}
	if sf.KnownHosts == "" && !sf.InsecureIgnoreHostKey {
		return errors.ConfigError("publish.sftp.known_hosts is required unless insecure_ignore_host_key is set").Build()
	}
	return nil
}

func (cv *configurationValidator) validateRetry() error {
	r := cv.config.Publish.Retry
	if retry.ParseMode(string(r.Mode)) == "" {
		return errors.ValidationError("unsupported retry mode: " + string(r.Mode)).Build()
	}
	if r.Initial < 0 || r.Max < 0 {
		return errors.ValidationError("retry durations cannot be negative").Build()
	}
	if r.Initial > r.Max {
		return errors.ValidationError("publish.retry.initial exceeds publish.retry.max").Build()
	}
	if err := r.Policy().Validate(); err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid retry policy").Build()
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	n := cv.config.Notify
	if n.NATSURL != "" && strings.ContainsAny(n.Subject, " \t*>") {
		return errors.ValidationError("notify.subject must be a literal NATS subject").
			WithContext("subject", n.Subject).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	if cv.config.Watch.RepublishInterval < 0 {
		return errors.ValidationError("watch.republish_interval cannot be negative").Build()
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	if raw == "" {
		return errors.ConfigError(field + " is required").Build()
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.ValidationError(field + " must be an absolute http(s) URL").
			WithContext("url", raw).
			Build()
	}
	return nil
}
