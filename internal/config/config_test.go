package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempstore/internal/core"
	"tempstore/internal/store"
)

const validTOML = `
[datasource]
backend = "mem"
instance_type = "DEV"
instance_name = "tempstore"
env_name = "local"
dataset = "Common"

[log]
verbosity = "status"
`

func TestParseValidConfig(t *testing.T) {
	cfg, err := NewParser().Parse(strings.NewReader(validTOML))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, store.BackendMem, cfg.Backend)
	assert.Equal(t, core.DbName{InstanceType: core.InstanceDev, InstanceName: "tempstore", EnvName: "local"}, cfg.DbName)
	assert.Equal(t, "Common", cfg.DatasetName)
	assert.Equal(t, core.VerbosityStatus, cfg.Verbosity)
	assert.False(t, cfg.ReadOnly)
	assert.Nil(t, cfg.Cutoff)
}

func TestParseMongoConfigRequiresURI(t *testing.T) {
	const toml = `
[datasource]
backend = "mongo"
instance_type = "PROD"
instance_name = "tempstore"
env_name = "prod"
dataset = "Common"
`
	_, err := NewParser().Parse(strings.NewReader(toml))
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindValidation))
}

func TestParseMongoConfigWithURI(t *testing.T) {
	const toml = `
[datasource]
backend = "mongo"
uri = "mongodb://localhost:27017"
instance_type = "PROD"
instance_name = "tempstore"
env_name = "prod"
dataset = "Common"
read_only = true
cutoff = "000000010000000000000000"

[log]
verbosity = "verify"
`
	cfg, err := NewParser().Parse(strings.NewReader(toml))
	require.NoError(t, err)

	assert.Equal(t, store.BackendMongo, cfg.Backend)
	assert.Equal(t, "mongodb://localhost:27017", cfg.URI)
	assert.True(t, cfg.ReadOnly)
	require.NotNil(t, cfg.Cutoff)
	assert.Equal(t, uint32(1), cfg.Cutoff.Seconds())
	assert.Equal(t, core.VerbosityVerify, cfg.Verbosity)
}

func TestParseRejectsUnknownBackend(t *testing.T) {
	const toml = `
[datasource]
backend = "sqlite"
instance_type = "DEV"
instance_name = "tempstore"
env_name = "local"
dataset = "Common"
`
	_, err := NewParser().Parse(strings.NewReader(toml))
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindValidation))
}

func TestParseRejectsBadDbName(t *testing.T) {
	const toml = `
[datasource]
backend = "mem"
instance_type = "BOGUS"
instance_name = "tempstore"
env_name = "local"
dataset = "Common"
`
	_, err := NewParser().Parse(strings.NewReader(toml))
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindValidation))
}

func TestParseEmptyDatasetMeansRoot(t *testing.T) {
	const toml = `
[datasource]
backend = "mem"
instance_type = "DEV"
instance_name = "tempstore"
env_name = "local"
`
	cfg, err := NewParser().Parse(strings.NewReader(toml))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.DatasetName)
}

func TestParseRejectsUnknownVerbosity(t *testing.T) {
	const toml = `
[datasource]
backend = "mem"
instance_type = "DEV"
instance_name = "tempstore"
env_name = "local"
dataset = "Common"

[log]
verbosity = "loud"
`
	_, err := NewParser().Parse(strings.NewReader(toml))
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindValidation))
}

func TestParseFileNotFound(t *testing.T) {
	_, err := NewParser().ParseFile("/nonexistent/tstore.toml")
	require.Error(t, err)
}
