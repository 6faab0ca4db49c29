package merge

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/nodecfg/internal/backup"
	"grimm.is/nodecfg/internal/logging"
)

func TestFileCreatesMissingCaddyfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caddy", "Caddyfile")

	res, err := File(path, []Block{rpcBlock("example.com")}, FileOptions{
		Options: Options{Header: "# cosmoshub-4"},
		Logger:  logging.Discard(),
	})
	require.NoError(t, err)

	assert.True(t, res.Written)
	assert.Nil(t, res.Backup)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, res.Content, string(got))
	assert.Contains(t, string(got), "# cosmoshub-4")
}

func TestFileBacksUpAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Caddyfile")
	existing := "email ops@example.com {\n}\nexplorer.example.com {\n  reverse_proxy localhost:3000\n}\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0640))

	res, err := File(path, []Block{rpcBlock("example.com")}, FileOptions{Logger: logging.Discard()})
	require.NoError(t, err)

	require.NotNil(t, res.Backup)
	assert.Equal(t, path+".bak", res.Backup.Path)
	saved, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, existing, string(saved))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(got), "rpc.example.com {")
	assert.Contains(t, string(got), "explorer.example.com {")
	assert.NotContains(t, string(got), "email ops@example.com")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())
}

func TestFileNothingToDo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Caddyfile")
	existing := "rpc.example.com {\n}\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))

	res, err := File(path, []Block{rpcBlock("example.com")}, FileOptions{Logger: logging.Discard()})
	require.NoError(t, err)

	assert.False(t, res.Changed)
	assert.False(t, res.Written)
	entries, _ := os.ReadDir(filepath.Dir(path))
	assert.Len(t, entries, 1, "no backup expected")
}

func TestFileDryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Caddyfile")
	require.NoError(t, os.WriteFile(path, []byte("x {\n}\n"), 0644))

	res, err := File(path, []Block{rpcBlock("example.com")}, FileOptions{DryRun: true, Logger: logging.Discard()})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Written)

	got, _ := os.ReadFile(path)
	assert.Equal(t, "x {\n}\n", string(got))
}

func TestFileSharedSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Caddyfile")
	require.NoError(t, os.WriteFile(path, []byte("x {\n}\n"), 0644))
	session := backup.NewSession(nil)

	_, err := File(path, []Block{rpcBlock("a.com")}, FileOptions{Session: session, Logger: logging.Discard()})
	require.NoError(t, err)
	_, err = File(path, []Block{rpcBlock("b.com")}, FileOptions{Session: session, Logger: logging.Discard()})
	require.NoError(t, err)

	assert.Len(t, session.Records(), 1)
	saved, _ := os.ReadFile(path + ".bak")
	assert.Equal(t, "x {\n}\n", string(saved))
}

func TestFileReplaceFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Caddyfile")
	existing := "explorer.example.com {\n  reverse_proxy localhost:3000\n}\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))

	orig := writeFile
	writeFile = func(p string, data []byte, mode fs.FileMode) error {
		return backup.WriteFile(filepath.Join(p, "nested"), data, mode)
	}
	t.Cleanup(func() { writeFile = orig })

	res, err := File(path, []Block{rpcBlock("example.com")}, FileOptions{Logger: logging.Discard()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWriteFailure))

	require.NotNil(t, res)
	assert.False(t, res.Written)
	require.NotNil(t, res.Backup)

	got, _ := os.ReadFile(path)
	assert.Equal(t, existing, string(got))
	saved, _ := os.ReadFile(path + ".bak")
	assert.Equal(t, existing, string(saved), "backup is kept")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary file left behind")
}

func TestFileBackupFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Caddyfile")
	require.NoError(t, os.WriteFile(path, []byte("x {\n}\n"), 0644))

	res, err := File(path, []Block{rpcBlock("example.com")}, FileOptions{Suffix: ".d/bak", Logger: logging.Discard()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWriteFailure))
	assert.False(t, res.Written)

	got, _ := os.ReadFile(path)
	assert.Equal(t, "x {\n}\n", string(got))
	entries, _ := os.ReadDir(filepath.Dir(path))
	assert.Len(t, entries, 1)
}

func TestFileCreateDirFailure(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "caddy")
	require.NoError(t, os.WriteFile(parent, []byte("not a directory"), 0644))

	_, err := File(filepath.Join(parent, "Caddyfile"), []Block{rpcBlock("example.com")}, FileOptions{Logger: logging.Discard()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWriteFailure))
}
