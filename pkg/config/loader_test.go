package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peoplesuite/peoplesuite-core/internal/testutil"
	"github.com/peoplesuite/peoplesuite-core/pkg/config"
	pserr "github.com/peoplesuite/peoplesuite-core/pkg/errors"
)

type testConfig struct {
	ListenAddr  string        `env:"LISTEN_ADDR" envDefault:":8080" yaml:"listen_addr"`
	AccountsURL string        `env:"ACCOUNTS_URL" yaml:"accounts_url"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"10s" yaml:"timeout"`
	Debug       bool          `env:"DEBUG" envDefault:"false" yaml:"debug"`
	Workers     int           `env:"WORKERS" envDefault:"4" yaml:"workers"`
	Origins     []string      `env:"ORIGINS" yaml:"origins"`
}

type requiredConfig struct {
	AccountsURL string `env:"ACCOUNTS_URL" yaml:"accounts_url" required:"true"`
}

type validatedConfig struct {
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s" yaml:"timeout"`
}

func (c *validatedConfig) Validate() error {
	if c.Timeout < time.Second {
		return pserr.Newf(pserr.CodeValidation,
			"config: timeout %s is below the 1s minimum", c.Timeout)
	}
	return nil
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, config.New().Load(&cfg))

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	testutil.SetEnv(t, "LISTEN_ADDR", ":9090")
	testutil.SetEnv(t, "TIMEOUT", "2s")
	testutil.SetEnv(t, "DEBUG", "true")
	testutil.SetEnv(t, "ORIGINS", "https://app.peoplesuite.io, https://admin.peoplesuite.io")

	var cfg testConfig
	require.NoError(t, config.New().Load(&cfg))

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.True(t, cfg.Debug)
	assert.Equal(t,
		[]string{"https://app.peoplesuite.io", "https://admin.peoplesuite.io"},
		cfg.Origins)
}

func TestLoad_EnvPrefix(t *testing.T) {
	testutil.SetEnv(t, "EMPLOYEES_ACCOUNTS_URL", "http://accounts:8080")

	var cfg testConfig
	require.NoError(t, config.New().WithEnvPrefix("employees").Load(&cfg))

	assert.Equal(t, "http://accounts:8080", cfg.AccountsURL)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := testutil.TempConfigFile(t, "accounts_url: http://accounts:8080\nworkers: 8\n", ".yaml")

	var cfg testConfig
	require.NoError(t, config.New().WithFile(path).Load(&cfg))

	assert.Equal(t, "http://accounts:8080", cfg.AccountsURL)
	assert.Equal(t, 8, cfg.Workers)
	// Defaults still apply to fields the file does not mention.
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := testutil.TempConfigFile(t, "listen_addr: \":7070\"\n", ".yaml")
	testutil.SetEnv(t, "LISTEN_ADDR", ":9090")

	var cfg testConfig
	require.NoError(t, config.New().WithFile(path).Load(&cfg))

	assert.Equal(t, ":9090", cfg.ListenAddr)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	var cfg testConfig
	require.NoError(t, config.New().WithFile("/nonexistent/config.yaml").Load(&cfg))
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := testutil.TempConfigFile(t, "listen_addr = ':7070'", ".toml")

	var cfg testConfig
	err := config.New().WithFile(path).Load(&cfg)
	testutil.RequireErrorCode(t, err, pserr.CodeInternalConfiguration)
}

func TestLoad_DirectoryTraversalRejected(t *testing.T) {
	var cfg testConfig
	err := config.New().WithFile("../../etc/passwd.yaml").Load(&cfg)
	testutil.RequireErrorCode(t, err, pserr.CodeInternalConfiguration)
}

func TestLoad_RequiredField(t *testing.T) {
	var cfg requiredConfig
	err := config.New().Load(&cfg)
	testutil.RequireErrorCode(t, err, pserr.CodeValidationRequired)

	testutil.SetEnv(t, "ACCOUNTS_URL", "http://accounts:8080")
	require.NoError(t, config.New().Load(&cfg))
}

func TestLoad_CustomValidator(t *testing.T) {
	testutil.SetEnv(t, "TIMEOUT", "100ms")

	var cfg validatedConfig
	err := config.New().Load(&cfg)
	testutil.RequireErrorCode(t, err, pserr.CodeValidation)
}

func TestLoad_NotAPointer(t *testing.T) {
	err := config.New().Load(testConfig{})
	testutil.RequireErrorCode(t, err, pserr.CodeInternalConfiguration)
}

func TestMustLoad_PanicsOnFailure(t *testing.T) {
	assert.Panics(t, func() {
		config.MustLoad[requiredConfig](config.New().WithEnvPrefix("NOPE"))
	})
}
