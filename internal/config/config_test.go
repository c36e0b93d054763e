package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
environment: PROD
sandbox:
  url: https://sandbox.internal
  timeout: 30s
discussions:
  driver: Postgres
  top_k: 3
db:
  host: db.internal
auth:
  okta_domain: https://acme.okta.com/oauth2/default/
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "PROD", cfg.Environment)
	assert.Equal(t, "https://sandbox.internal", cfg.Sandbox.URL)
	assert.Equal(t, 30*time.Second, cfg.Sandbox.Timeout)
	assert.Equal(t, DriverPostgres, cfg.Discussions.Driver)
	assert.Equal(t, 3, cfg.Discussions.TopK)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "https://acme.okta.com/oauth2/default", cfg.Auth.OktaDomain)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "sandbox:\n  api_key: from-file\n")
	t.Setenv("SANDBOX_API_KEY", "from-env")
	t.Setenv("WORKFLOWS_NAMESPACE", "/srv/workflows")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Sandbox.APIKey)
	assert.Equal(t, "/srv/workflows", cfg.Workflows.Namespace)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, DriverBadger, cfg.Discussions.Driver)
	assert.Equal(t, BuiltinNamespace, cfg.Workflows.Namespace)
	assert.Equal(t, 5, cfg.Discussions.TopK)
	assert.Empty(t, cfg.MLSidecar.URL, "no sidecar unless configured")
}

func TestLoadConfig_EmptyEnvClearsSidecar(t *testing.T) {
	path := writeConfig(t, "ml_sidecar:\n  url: http://sidecar:8000\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://sidecar:8000", cfg.MLSidecar.URL)

	t.Setenv("ML_SIDECAR_URL", "")
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.MLSidecar.URL)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{Environment: "DEV", DevModeBypass: true}
		cfg.Sandbox.URL = "http://localhost:49999"
		cfg.Discussions.Driver = DriverNone
		cfg.Discussions.TopK = 5
		return cfg
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.Sandbox.URL = " "
	assert.ErrorIs(t, cfg.Validate(), ErrMissingSandbox)

	cfg = base()
	cfg.Discussions.Driver = "chroma"
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownDriver)

	cfg = base()
	cfg.Discussions.Driver = DriverPostgres
	assert.ErrorIs(t, cfg.Validate(), ErrMissingDatabase)

	cfg = base()
	cfg.Discussions.TopK = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidTopK)

	cfg = base()
	cfg.Environment = "PROD"
	assert.ErrorIs(t, cfg.Validate(), ErrMissingIssuer)
}
