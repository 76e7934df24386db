package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/storage"
)

const groupExport = "1/1/24, 10:30 AM - Ahmed: شقة للبيع في الحي 12 - اتصل 01012345678\n" +
	"1/1/24, 10:31 AM - Mona +20 101 234 5679: مطلوب فيلا للإيجار بالشيخ زايد\n" +
	"1/1/24, 10:32 AM - Omar: 01012345670\n" +
	"1/1/24, 10:34 AM - Sara: محل متاح للبيع\n" +
	"الموقع: شارع التسعين\n"

func runCommand(t *testing.T, dbPath, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)
	cfgFile = ""

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--log-level", "error", "--db", dbPath}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func countRecords(t *testing.T, dbPath string) int {
	t.Helper()
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, filepath.Join(t.TempDir(), "db.sqlite"), "", "version")
	require.NoError(t, err)
	assert.Equal(t, "listings dev\n", out)
}

func TestClassifyCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db.sqlite")

	t.Run("from arguments", func(t *testing.T) {
		out, err := runCommand(t, dbPath, "", "classify", "شقة للبيع في الحي 12 - اتصل 01012345678")
		require.NoError(t, err)
		assert.Contains(t, out, "Apartment")
		assert.Contains(t, out, "Sale")
		assert.Contains(t, out, "Block 12")
		assert.Contains(t, out, "01012345678")
	})

	t.Run("from stdin", func(t *testing.T) {
		out, err := runCommand(t, dbPath, "فيلا للإيجار\n", "classify")
		require.NoError(t, err)
		assert.Contains(t, out, "Villa")
		assert.Contains(t, out, "Rent")
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := runCommand(t, dbPath, "  \n", "classify")
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})
}

func TestImportDedupBackupFlow(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "listings.db")
	exportPath := filepath.Join(dir, "group.txt")
	require.NoError(t, os.WriteFile(exportPath, []byte(groupExport), 0o600))

	out, err := runCommand(t, dbPath, "", "import", "--no-enrich", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Import Complete: group.txt")
	assert.Equal(t, 3, countRecords(t, dbPath))

	_, err = runCommand(t, dbPath, "", "import", "--no-enrich", exportPath)
	require.NoError(t, err)
	assert.Equal(t, 3, countRecords(t, dbPath), "re-import replaces by default")

	_, err = runCommand(t, dbPath, "", "import", "--no-enrich", "--replace=false", exportPath)
	require.NoError(t, err)
	assert.Equal(t, 6, countRecords(t, dbPath))

	out, err = runCommand(t, dbPath, "", "dedup", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Deduplication Preview")
	assert.Equal(t, 6, countRecords(t, dbPath))

	out, err = runCommand(t, dbPath, "", "dedup")
	require.NoError(t, err)
	assert.Contains(t, out, "Deduplication Complete")
	assert.Equal(t, 3, countRecords(t, dbPath))

	out, err = runCommand(t, dbPath, "", "backup", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "auto-dedup-")

	out, err = runCommand(t, dbPath, "", "reprocess", "--no-enrich")
	require.NoError(t, err)
	assert.Contains(t, out, "Reprocess Complete")
	assert.Equal(t, 3, countRecords(t, dbPath))
}

func TestImportSourceOverride(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "listings.db")
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte(groupExport), 0o600))
	require.NoError(t, os.WriteFile(b, []byte(groupExport), 0o600))

	_, err := runCommand(t, dbPath, "", "import", "--no-enrich", "--source", "group", a, b)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = runCommand(t, dbPath, "", "import", "--no-enrich", "--source", "renamed", a)
	require.NoError(t, err)

	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	records, err := store.FindBySourceFile(context.Background(), "renamed")
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestImportRejectsSameNamedExports(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "listings.db")
	for _, group := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, group), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, group, "_chat.txt"), []byte(groupExport), 0o600))
	}

	_, err := runCommand(t, dbPath, "", "import", "--no-enrich", filepath.Join(dir, "a"), filepath.Join(dir, "b"))
	require.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Contains(t, err.Error(), "_chat.txt")

	_, err = runCommand(t, dbPath, "", "import", "--no-enrich", "--source", "group-a", filepath.Join(dir, "a", "_chat.txt"))
	require.NoError(t, err)
	_, err = runCommand(t, dbPath, "", "import", "--no-enrich", "--source", "group-b", filepath.Join(dir, "b", "_chat.txt"))
	require.NoError(t, err)
	assert.Equal(t, 6, countRecords(t, dbPath))
}

func TestDedupHelpNamesKeyFields(t *testing.T) {
	out, err := runCommand(t, filepath.Join(t.TempDir(), "db.sqlite"), "", "dedup", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "sender name, sender mobile and message text")
}

func TestStatsCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "listings.db")
	exportPath := filepath.Join(dir, "group.txt")
	require.NoError(t, os.WriteFile(exportPath, []byte(groupExport), 0o600))

	_, err := runCommand(t, dbPath, "", "import", "--no-enrich", exportPath)
	require.NoError(t, err)

	out, err := runCommand(t, dbPath, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Records")
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "Senders")
	assert.Contains(t, out, string(model.PropertyApartment))
}

func TestBackupCreateAndRestore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "listings.db")
	exportPath := filepath.Join(dir, "group.txt")
	require.NoError(t, os.WriteFile(exportPath, []byte(groupExport), 0o600))

	_, err := runCommand(t, dbPath, "", "import", "--no-enrich", exportPath)
	require.NoError(t, err)

	out, err := runCommand(t, dbPath, "", "backup", "create", "snapshot")
	require.NoError(t, err)
	assert.Contains(t, out, "Created backup snapshot")

	_, err = runCommand(t, dbPath, "", "import", "--no-enrich", "--replace=false", exportPath)
	require.NoError(t, err)
	require.Equal(t, 6, countRecords(t, dbPath))

	out, err = runCommand(t, dbPath, "n\n", "backup", "restore", "snapshot")
	require.NoError(t, err)
	assert.NotContains(t, out, "Restored")
	assert.Equal(t, 6, countRecords(t, dbPath))

	out, err = runCommand(t, dbPath, "", "backup", "restore", "--yes", "snapshot")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored backup snapshot")
	assert.Equal(t, 3, countRecords(t, dbPath))
}

func TestMigrateStatus(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "listings.db")

	_, err := runCommand(t, dbPath, "", "migrate")
	require.NoError(t, err)

	out, err := runCommand(t, dbPath, "", "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Latest version")
}

func TestInvalidConfiguration(t *testing.T) {
	_, err := runCommand(t, filepath.Join(t.TempDir(), "db.sqlite"), "", "--log-format", "xml", "version")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
