package profile

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsSqliteDSN(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{Mode: "dev", Driver: "sqlite", Data: dir}

	require.NoError(t, p.Validate())
	assert.Equal(t, filepath.Join(dir, "converse_dev.db"), p.DSN)
	assert.Equal(t, 30*time.Second, p.AITimeout)
}

func TestValidateNormalizesMode(t *testing.T) {
	p := &Profile{Mode: "staging", Driver: "sqlite", Data: t.TempDir()}

	require.NoError(t, p.Validate())
	assert.Equal(t, "demo", p.Mode)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "mysql", Data: t.TempDir()}
	assert.Error(t, p.Validate())
}

func TestValidateRequiresPostgresDSN(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "postgres", Data: t.TempDir()}
	assert.Error(t, p.Validate())
}

func TestValidateKeepsExplicitDSN(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{
		Mode:      "prod",
		Driver:    "sqlite",
		Data:      dir,
		DSN:       filepath.Join(dir, "custom.db"),
		AITimeout: 5 * time.Second,
	}

	require.NoError(t, p.Validate())
	assert.Equal(t, filepath.Join(dir, "custom.db"), p.DSN)
	assert.Equal(t, 5*time.Second, p.AITimeout)
	assert.False(t, p.IsDev())
}
