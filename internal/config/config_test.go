package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/retry"
)

// clearCredentialEnv keeps credentials of the developer's shell out of the tests.
func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvWordPressUser, EnvWordPressPassword, EnvSFTPHost, EnvSFTPUser, EnvSFTPPassword, EnvRepositoryToken} {
		t.Setenv(k, "")
	}
}

func requireCategory(t *testing.T, err error, category errors.ErrorCategory) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, category), "expected %s, got %v", category, err)
}

func TestParse_Defaults(t *testing.T) {
	clearCredentialEnv(t)

	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, Version, cfg.Version)
	assert.Equal(t, "curriculum.yaml", cfg.Data.Curriculum)
	assert.Equal(t, "lecturers.yaml", cfg.Data.Lecturers)
	assert.Equal(t, "generated", cfg.Output.Dir)
	assert.Equal(t, "index.html", cfg.Output.Index)
	assert.Equal(t, "report.html", cfg.Output.Report)
	assert.Equal(t, TargetNone, cfg.Publish.Target)
	assert.Equal(t, 4, cfg.Publish.Concurrency)
	assert.Equal(t, "links.yaml", cfg.Publish.LinksFile)
	assert.Equal(t, 16, cfg.Publish.WordPress.IndexParentID)
	assert.Equal(t, "publish", cfg.Publish.WordPress.Status)
	assert.Equal(t, 22, cfg.Publish.SFTP.Port)
	assert.Equal(t, "syllabi.published", cfg.Notify.Subject)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	assert.Empty(t, cfg.Ledger.Path)
	assert.Equal(t, retry.DefaultPolicy(), cfg.Publish.Retry.Policy())
}

func TestParse_WordPressWithEnvExpansion(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("SYLLABI_TEST_PASSWORD", "s3cret")

	cfg, err := Parse([]byte(`
version: "1.0"
publish:
  wordpress:
    base_url: https://phys.example
    user: editor
    password: ${SYLLABI_TEST_PASSWORD}
    timeout: 5s
  skip_unchanged: true
  retry:
    mode: Linear
    initial: 1s
    max: 4s
    max_retries: -1
watch:
  republish_interval: 1h
`))
	require.NoError(t, err)

	assert.Equal(t, TargetWordPress, cfg.Publish.Target, "target inferred from base_url")
	assert.Equal(t, "s3cret", cfg.Publish.WordPress.Password)
	assert.Equal(t, 5*time.Second, cfg.Publish.WordPress.Timeout)
	assert.Equal(t, retry.ModeLinear, cfg.Publish.Retry.Mode)
	assert.Equal(t, filepath.Join(".syllabi", "ledger.db"), cfg.Ledger.Path, "skip_unchanged needs a ledger")
	assert.Equal(t, time.Hour, cfg.Watch.RepublishInterval)

	p := cfg.Publish.Retry.Policy()
	assert.Equal(t, 0, p.MaxRetries)
	assert.Equal(t, 2*time.Second, p.Delay(2))
}

func TestParse_CredentialsFromEnvironment(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvWordPressUser, "env-user")
	t.Setenv(EnvWordPressPassword, "env-pass")

	cfg, err := Parse([]byte("publish:\n  target: wordpress\n  wordpress:\n    base_url: https://phys.example\n"))
	require.NoError(t, err)
	assert.Equal(t, "env-user", cfg.Publish.WordPress.User)
	assert.Equal(t, "env-pass", cfg.Publish.WordPress.Password)
}

func TestParse_Repository(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvRepositoryToken, "tok")

	cfg, err := Parse([]byte("data:\n  repository:\n    url: https://git.example.org/faculty/curriculum.git\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Data.Repository)
	assert.Equal(t, "main", cfg.Data.Repository.Branch)
	assert.Equal(t, filepath.Join(".syllabi", "data"), cfg.Data.Repository.Dir)
	assert.Equal(t, "tok", cfg.Data.Repository.Token)
	assert.Equal(t, "git", cfg.Data.Repository.Username)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		category errors.ErrorCategory
	}{
		{"unknown key", "publsh:\n  target: none\n", errors.CategoryConfig},
		{"malformed", "output: [", errors.CategoryConfig},
		{"version", "version: \"9\"\n", errors.CategoryConfig},
		{"unknown target", "publish:\n  target: ftp\n", errors.CategoryConfig},
		{"wordpress without credentials", "publish:\n  target: wordpress\n  wordpress:\n    base_url: https://x.example\n", errors.CategoryConfig},
		{"wordpress relative url", "publish:\n  target: wordpress\n  wordpress:\n    base_url: /wp\n    user: u\n    password: p\n", errors.CategoryValidation},
		{"wordpress status", "publish:\n  wordpress:\n    base_url: https://x.example\n    user: u\n    password: p\n    status: gone\n", errors.CategoryValidation},
		{"sftp without host key policy", "publish:\n  target: sftp\n  sftp:\n    host: h\n    user: u\n    remote_dir: /srv\n    base_url: https://x.example/s/\n", errors.CategoryConfig},
		{"sftp without base url", "publish:\n  target: sftp\n  sftp:\n    host: h\n    user: u\n    remote_dir: /srv\n    insecure_ignore_host_key: true\n", errors.CategoryConfig},
		{"concurrency", "publish:\n  concurrency: -1\n", errors.CategoryValidation},
		{"retry mode", "publish:\n  retry:\n    mode: random\n", errors.CategoryValidation},
		{"retry bounds", "publish:\n  retry:\n    initial: 5s\n    max: 1s\n", errors.CategoryValidation},
		{"index path", "output:\n  index: pages/index.html\n", errors.CategoryValidation},
		{"report path", "output:\n  report: ../report.html\n", errors.CategoryValidation},
		{"report shadows index", "output:\n  report: index.html\n", errors.CategoryValidation},
		{"repository url", "data:\n  repository:\n    branch: main\n", errors.CategoryValidation},
		{"nats subject", "notify:\n  nats_url: nats://localhost:4222\n  subject: syllabi.*\n", errors.CategoryValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearCredentialEnv(t)
			_, err := Parse([]byte(tt.yaml))
			requireCategory(t, err, tt.category)
		})
	}
}

func TestParse_SFTP(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvSFTPPassword, "pw")

	cfg, err := Parse([]byte(`
publish:
  target: " SSH "
  sftp:
    host: static.example
    user: deploy
    remote_dir: /var/www/syllabi
    base_url: https://static.example/syllabi/
    known_hosts: /etc/ssh/ssh_known_hosts
`))
	require.NoError(t, err)
	assert.Equal(t, TargetSFTP, cfg.Publish.Target, "target alias normalized")
	assert.Equal(t, "pw", cfg.Publish.SFTP.Password)
	assert.Equal(t, 30*time.Second, cfg.Publish.SFTP.Timeout)
}

func TestParseTarget(t *testing.T) {
	target, err := ParseTarget("WordPress")
	require.NoError(t, err)
	assert.Equal(t, TargetWordPress, target)

	target, err = ParseTarget("wp")
	require.NoError(t, err)
	assert.Equal(t, TargetWordPress, target)

	_, err = ParseTarget("ftp")
	requireCategory(t, err, errors.CategoryValidation)
	assert.Contains(t, err.Error(), "none, sftp, wordpress")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	requireCategory(t, err, errors.CategoryConfig)

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	file, _ := ce.Context().GetString("file")
	assert.Contains(t, file, "absent.yaml")
}

func TestLoad_ParseErrorCarriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syllabi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: ["), 0o600))

	_, err := Load(path)
	requireCategory(t, err, errors.CategoryConfig)
	ce, _ := errors.AsClassified(err)
	file, ok := ce.Context().GetString("file")
	assert.True(t, ok)
	assert.Equal(t, path, file)
}

func TestLoadOrDefault(t *testing.T) {
	clearCredentialEnv(t)
	missing := filepath.Join(t.TempDir(), "syllabi.yaml")

	cfg, err := LoadOrDefault(missing, false)
	require.NoError(t, err)
	assert.Equal(t, TargetNone, cfg.Publish.Target)

	_, err = LoadOrDefault(missing, true)
	requireCategory(t, err, errors.CategoryConfig)
}

func TestWriteThenLoad(t *testing.T) {
	clearCredentialEnv(t)
	path := filepath.Join(t.TempDir(), "syllabi.yaml")

	require.NoError(t, Write(path, Default(), false))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)

	err = Write(path, Default(), false)
	requireCategory(t, err, errors.CategoryConfig)
	require.NoError(t, Write(path, Default(), true))
}

func TestDefaultAppliersHaveDistinctDomains(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range defaultAppliers {
		assert.False(t, seen[a.Domain()], "duplicate domain %s", a.Domain())
		seen[a.Domain()] = true
	}
}
