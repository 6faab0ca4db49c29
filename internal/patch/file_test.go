package patch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/nodecfg/internal/backup"
	"grimm.is/nodecfg/internal/logging"
	"grimm.is/nodecfg/internal/metrics"
)

const appTOML = `# This is a TOML config file.
minimum-gas-prices = "0uatom"

[api]
enable = false
address = "tcp://localhost:1317"

[grpc]
enable = true
address = "localhost:9090"
`

func apiRules(t *testing.T) *RuleSet {
	return mustRules(t,
		Rule{Section: "api", Key: "enable", Value: Bool(true)},
		Rule{Section: "api", Key: "address", Value: String("tcp://0.0.0.0:1317")},
		Rule{Section: "grpc", Key: "address", Value: String("0.0.0.0:9090")},
	)
}

func writeTarget(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFilePatchesAndBacksUp(t *testing.T) {
	path := writeTarget(t, appTOML)
	reg := metrics.New()

	res, err := File(path, apiRules(t), FileOptions{Logger: logging.Discard(), Metrics: reg, CheckTOML: true})
	require.NoError(t, err)

	assert.True(t, res.Written)
	assert.Equal(t, 3, res.Report.Rewrites())
	require.NotNil(t, res.Backup)
	assert.Equal(t, path+".backup", res.Backup.Path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, res.After, string(got))
	assert.Contains(t, string(got), "enable = true\naddress = \"tcp://0.0.0.0:1317\"")
	assert.Contains(t, string(got), "minimum-gas-prices = \"0uatom\"")

	saved, err := os.ReadFile(res.Backup.Path)
	require.NoError(t, err)
	assert.Equal(t, appTOML, string(saved))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.FilesWritten.WithLabelValues("patch", "app.toml")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Backups.WithLabelValues("patch")))
}

func TestFileUnchangedWritesNothing(t *testing.T) {
	path := writeTarget(t, appTOML)
	rs := mustRules(t, Rule{Section: "grpc", Key: "enable", Value: Bool(true)})

	res, err := File(path, rs, FileOptions{Logger: logging.Discard()})
	require.NoError(t, err)

	assert.False(t, res.Written)
	assert.Nil(t, res.Backup)
	assert.False(t, res.Report.Changed)
	_, err = os.Stat(path + ".backup")
	assert.True(t, errors.Is(err, os.ErrNotExist), "no backup expected")
}

func TestFileNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.toml")

	_, err := File(path, apiRules(t), FileOptions{Logger: logging.Discard()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, statErr := os.Stat(path + ".backup")
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestFileDryRun(t *testing.T) {
	path := writeTarget(t, appTOML)

	res, err := File(path, apiRules(t), FileOptions{DryRun: true, Logger: logging.Discard()})
	require.NoError(t, err)

	assert.False(t, res.Written)
	assert.NotEqual(t, res.Before, res.After)
	got, _ := os.ReadFile(path)
	assert.Equal(t, appTOML, string(got))
	entries, _ := os.ReadDir(filepath.Dir(path))
	assert.Len(t, entries, 1)
}

func TestFileSessionBacksUpOnce(t *testing.T) {
	path := writeTarget(t, appTOML)
	session := backup.NewSession(nil)
	opts := FileOptions{Session: session, Logger: logging.Discard()}

	first, err := File(path, mustRules(t, Rule{Section: "api", Key: "enable", Value: Bool(true)}), opts)
	require.NoError(t, err)
	second, err := File(path, mustRules(t, Rule{Section: "grpc", Key: "address", Value: String("0.0.0.0:9090")}), opts)
	require.NoError(t, err)

	require.NotNil(t, first.Backup)
	require.NotNil(t, second.Backup)
	assert.Equal(t, first.Backup.Path, second.Backup.Path)
	assert.Len(t, session.Records(), 1)

	saved, err := os.ReadFile(first.Backup.Path)
	require.NoError(t, err)
	assert.Equal(t, appTOML, string(saved), "backup must hold the pre-run content")

	got, _ := os.ReadFile(path)
	assert.Contains(t, string(got), "enable = true")
	assert.Contains(t, string(got), `address = "0.0.0.0:9090"`)
}

func TestFileKeepsExistingBackup(t *testing.T) {
	path := writeTarget(t, appTOML)
	require.NoError(t, os.WriteFile(path+".backup", []byte("from last week\n"), 0600))

	res, err := File(path, apiRules(t), FileOptions{Logger: logging.Discard()})
	require.NoError(t, err)
	assert.NotEqual(t, path+".backup", res.Backup.Path)

	old, _ := os.ReadFile(path + ".backup")
	assert.Equal(t, "from last week\n", string(old))
}

func TestFileIsDirectory(t *testing.T) {
	_, err := File(t.TempDir(), apiRules(t), FileOptions{Logger: logging.Discard()})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func failReplace(t *testing.T) {
	t.Helper()
	orig := writeFile
	// Writing below a regular file fails before any temporary is created.
	writeFile = func(path string, data []byte, mode fs.FileMode) error {
		return backup.WriteFile(filepath.Join(path, "nested"), data, mode)
	}
	t.Cleanup(func() { writeFile = orig })
}

func TestFileReplaceFailure(t *testing.T) {
	path := writeTarget(t, appTOML)
	reg := metrics.New()
	failReplace(t)

	res, err := File(path, apiRules(t), FileOptions{Logger: logging.Discard(), Metrics: reg})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWriteFailure))
	assert.False(t, errors.Is(err, ErrNotFound))

	require.NotNil(t, res)
	assert.False(t, res.Written)
	require.NotNil(t, res.Backup, "backup is kept after a failed replace")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, appTOML, string(got))
	saved, err := os.ReadFile(res.Backup.Path)
	require.NoError(t, err)
	assert.Equal(t, appTOML, string(saved))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "only the original and its backup")

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Failures.WithLabelValues("patch", "write")))
}

func TestFileBackupFailure(t *testing.T) {
	path := writeTarget(t, appTOML)

	// The suffix names a directory that does not exist.
	res, err := File(path, apiRules(t), FileOptions{Suffix: ".d/backup", Logger: logging.Discard()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWriteFailure))

	require.NotNil(t, res)
	assert.False(t, res.Written)
	assert.Nil(t, res.Backup)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, appTOML, string(got), "original untouched when the backup fails")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
