package erp

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapview/internal/testutil"
)

func TestLoad(t *testing.T) {
	logs, logger := testutil.NewLogRecorder(t)
	c, err := Load(context.Background(), filepath.Join("testdata", "data"), nil, logger)
	require.NoError(t, err)
	assert.Len(t, logs.Messages(slog.LevelInfo), 4, "one line per loaded dataset")

	assert.Equal(t, 4, c.Count())
	assert.Equal(t, []string{"budget", "invoices", "issues", "reimbursements"}, c.Names())
	require.Len(t, c.All(), 4)
	assert.Equal(t, "budget", c.All()[0].Info().Name)
}

func TestLoad_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("testdata", "data", "reimbursements.csv"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reimbursements.csv"), src, 0o600))

	c, err := Load(context.Background(), dir, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"reimbursements"}, c.Names())

	_, err = c.Get("budget")
	require.ErrorIs(t, err, ErrUnknownDataset)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "budget.csv"), []byte("id,category\nb1,food\n"), 0o600))

	_, err := Load(context.Background(), dir, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load dataset budget")
	assert.Contains(t, err.Error(), `invalid category "food"`)
}

func TestLoad_Settings(t *testing.T) {
	c, err := Load(context.Background(), filepath.Join("testdata", "data"), map[string]Settings{
		"issues": {DefaultSort: "severity:desc", PageSize: 2},
	}, nil)
	require.NoError(t, err)

	ds, err := c.Get("issues")
	require.NoError(t, err)
	assert.Equal(t, "severity:desc", ds.Info().DefaultSort)
	assert.Equal(t, 2, ds.DefaultQuery().Page.Size)
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, filepath.Join("testdata", "data"), nil, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCatalog_Replace(t *testing.T) {
	full := testCatalog(t)
	c := NewCatalog()
	ds, err := full.Get("issues")
	require.NoError(t, err)
	c.Register(ds)
	assert.Equal(t, 1, c.Count())

	c.Replace(full)
	assert.Equal(t, 4, c.Count())

	c.Replace(NewCatalog())
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, 4, full.Count())
}
