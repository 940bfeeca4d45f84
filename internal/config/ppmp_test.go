package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPPMPConfigHolderDefaults(t *testing.T) {
	holder, err := LoadPPMPConfigHolder(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultPPMPConfig(), holder.Get())
}

func TestLoadPPMPConfigHolderFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`ppmp:
  reports:
    topItemsLimit: 5
  disbursements:
    searchDefaultLimit: 10
    searchMaxLimit: 30
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ppmp.yml"), content, 0o600))

	holder, err := LoadPPMPConfigHolder(dir)
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 5, cfg.Reports.TopItemsLimit)
	assert.Equal(t, 10, cfg.Disbursements.SearchDefaultLimit)
	assert.Equal(t, 30, cfg.Disbursements.SearchMaxLimit)
	assert.Equal(t, 10, cfg.Dashboard.RecentLimit)
}

func TestLoadPPMPConfigHolderRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`ppmp:
  disbursements:
    searchDefaultLimit: 80
    searchMaxLimit: 50
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ppmp.yml"), content, 0o600))

	_, err := LoadPPMPConfigHolder(dir)
	assert.Error(t, err)
}

func TestNilHolderFallsBackToDefaults(t *testing.T) {
	var holder *PPMPConfigHolder
	assert.Equal(t, DefaultPPMPConfig(), holder.Get())
}
