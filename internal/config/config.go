package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/foundation/normalization"
	"git.home.luguber.info/inful/syllabi/internal/retry"
)

// Version is the configuration format version understood by this build.
const Version = "1.0"

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "syllabi.yaml"

// Config is the complete tool configuration.
type Config struct {
	Version   string          `yaml:"version"`
	Data      DataConfig      `yaml:"data"`
	Templates TemplatesConfig `yaml:"templates"`
	Output    OutputConfig    `yaml:"output"`
	Publish   PublishConfig   `yaml:"publish"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Notify    NotifyConfig    `yaml:"notify"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Watch     WatchConfig     `yaml:"watch"`
}

// DataConfig locates the curriculum data files.
type DataConfig struct {
	Curriculum string `yaml:"curriculum"`
	Lecturers  string `yaml:"lecturers"`
	// Repository, when set, is cloned (or pulled) before the data files are read;
	// Curriculum and Lecturers are then relative to the checkout.
	Repository *RepositoryConfig `yaml:"repository,omitempty"`
}

// RepositoryConfig describes a git repository holding the data files.
type RepositoryConfig struct {
	URL      string `yaml:"url"`
	Branch   string `yaml:"branch"`
	Dir      string `yaml:"dir"`
	Username string `yaml:"username"`
	Token    string `yaml:"token"`
}

// TemplatesConfig points at template overrides. Empty paths use the embedded defaults.
type TemplatesConfig struct {
	Discipline string `yaml:"discipline"`
	Index      string `yaml:"index"`
	Report     string `yaml:"report"`
}

// OutputConfig controls where generated pages are written.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Index  string `yaml:"index"`  // file name of the index page inside Dir
	Report string `yaml:"report"` // file name of the mapping report inside Dir
	Clean  bool   `yaml:"clean"`
}

// TargetType selects the publishing backend.
type TargetType string

const (
	TargetWordPress TargetType = "wordpress"
	TargetSFTP      TargetType = "sftp"
	TargetNone      TargetType = "none"
)

var targets = normalization.NewNormalizer("publish target",
	map[string]TargetType{"wordpress": TargetWordPress, "sftp": TargetSFTP, "none": TargetNone},
	map[string]TargetType{"wp": TargetWordPress, "ssh": TargetSFTP, "off": TargetNone},
)

// ParseTarget converts user input (case-insensitive, with aliases) into a target.
func ParseTarget(raw string) (TargetType, error) {
	return targets.NormalizeWithError(raw)
}

// PublishConfig configures page uploads.
type PublishConfig struct {
	Target      TargetType      `yaml:"target"`
	Concurrency int             `yaml:"concurrency"`
	LinksFile   string          `yaml:"links_file"`
	// SkipUnchanged skips uploads whose content fingerprint matches the last
	// successful publish recorded in the ledger.
	SkipUnchanged bool            `yaml:"skip_unchanged"`
	WordPress     WordPressConfig `yaml:"wordpress"`
	SFTP          SFTPConfig      `yaml:"sftp"`
	Retry         RetryConfig     `yaml:"retry"`
}

// WordPressConfig configures the WordPress REST target.
type WordPressConfig struct {
	BaseURL       string        `yaml:"base_url"`
	User          string        `yaml:"user"`
	Password      string        `yaml:"password"`
	Status        string        `yaml:"status"`
	ParentID      int           `yaml:"parent_id"`
	IndexParentID int           `yaml:"index_parent_id"`
	Timeout       time.Duration `yaml:"timeout"`
}

// SFTPConfig configures the static-hosting SFTP target.
type SFTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	RemoteDir string `yaml:"remote_dir"`
	// BaseURL is the public URL of RemoteDir; page URLs are BaseURL + file name.
	BaseURL               string        `yaml:"base_url"`
	KnownHosts            string        `yaml:"known_hosts"`
	InsecureIgnoreHostKey bool          `yaml:"insecure_ignore_host_key"`
	Timeout               time.Duration `yaml:"timeout"`
}

// RetryConfig configures retries of transient publish failures.
type RetryConfig struct {
	Mode       retry.Mode    `yaml:"mode"`
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	// MaxRetries of 0 uses the default; a negative value disables retries.
	MaxRetries int `yaml:"max_retries"`
}

// Policy converts the configuration into a retry policy.
func (r RetryConfig) Policy() retry.Policy {
	n := r.MaxRetries
	if n == 0 {
		n = retry.DefaultPolicy().MaxRetries
	} else if n < 0 {
		n = 0
	}
	return retry.NewPolicy(r.Mode, r.Initial, r.Max, n)
}

// LedgerConfig configures the publish ledger. An empty Path disables it.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// NotifyConfig configures publish notifications. An empty URL disables them.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// MetricsConfig configures metrics output. Both outputs are disabled when empty.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
	// Listen is the address serving /metrics while watching.
	Listen string `yaml:"listen"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	// RepublishInterval, when positive, publishes on a fixed schedule while watching.
	RepublishInterval time.Duration `yaml:"republish_interval"`
}

// Load reads a configuration file, expanding ${VAR} references from the environment
// (after loading .env files), applying defaults and validating the result.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.ConfigError("configuration file not found").WithContext("file", path).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("file", path).
			Build()
	}
	return parse(data, path)
}

// LoadOrDefault loads path when it exists. A missing file yields the default
// configuration unless required is set.
func LoadOrDefault(path string, required bool) (*Config, error) {
	if _, err := os.Stat(path); err != nil && stderrors.Is(err, fs.ErrNotExist) && !required {
		loadEnvFiles()
		cfg := Default()
		if err := finish(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(path)
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: Version}
	applyDefaults(cfg)
	return cfg
}

// Parse decodes configuration YAML. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	return parse(data, "")
}

func parse(data []byte, file string) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		b := errors.WrapError(err, errors.CategoryConfig, "failed to parse config")
		if file != "" {
			b = b.WithContext("file", file)
		}
		return nil, b.Build()
	}
	if cfg.Version == "" {
		cfg.Version = Version
	}
	if cfg.Version != Version {
		return nil, errors.ConfigError(fmt.Sprintf("unsupported configuration version %q (expected %s)", cfg.Version, Version)).
			WithContext("version", cfg.Version).
			Build()
	}
	if err := finish(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func finish(cfg *Config) error {
	applyEnvCredentials(cfg)
	applyDefaults(cfg)
	return Validate(cfg)
}

// Write stores cfg as YAML at path. An existing file is replaced only when force is set.
func Write(path string, cfg *Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("file", path).
			Build()
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode config").Build()
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("file", path).
			Build()
	}
	return nil
}
