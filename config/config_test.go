package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ocl.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	conf, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultConf, *conf)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConf(t, `
log-level = "debug"
max-nodes = 64

[stress]
workers = 3
remove-ratio = 0.5
`)
	conf, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", conf.LogLevel)
	require.EqualValues(t, 64, conf.MaxNodes)
	require.Equal(t, 3, conf.Stress.Workers)
	require.Equal(t, 0.5, conf.Stress.RemoveRatio)
	// untouched keys keep their defaults
	require.Equal(t, DefaultConf.Stress.ValuesPerWorker, conf.Stress.ValuesPerWorker)
	require.Equal(t, DefaultConf.HTTPAddr, conf.HTTPAddr)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"bad level":    `log-level = "loud"`,
		"bad workers":  "[stress]\nworkers = 0",
		"bad ratio":    "[stress]\nremove-ratio = 1.5",
		"unknown key":  `colour = "blue"`,
		"bad syntax":   `log-level = `,
		"bad budget":   `max-nodes = -1`,
		"bad interval": "[stress]\nread-every = -2",
	}
	for name, body := range cases {
		_, err := Load(writeConf(t, body))
		require.Error(t, err, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
