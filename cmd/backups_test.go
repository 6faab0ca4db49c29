package cmd

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/nodecfg/internal/testutil"
)

func TestRunBackups(t *testing.T) {
	f := newFixture(t, "")
	e := newTestEnv()
	require.NoError(t, RunApply(ApplyOptions{GlobalFlags: f.flags(), Env: e.env(), Yes: true}))

	e.out.Reset()
	require.NoError(t, RunBackups(BackupsOptions{GlobalFlags: f.flags(), Env: e.env()}))
	out := e.out.String()
	assert.Contains(t, out, "COMMAND")
	assert.Contains(t, out, "apply")
	assert.Contains(t, out, "ok")

	e.out.Reset()
	require.NoError(t, RunBackups(BackupsOptions{GlobalFlags: f.flags(), Env: e.env(), File: f.appTOML()}))
	assert.Contains(t, e.out.String(), f.appTOML()+".backup")

	e.out.Reset()
	require.NoError(t, RunBackups(BackupsOptions{GlobalFlags: f.flags(), Env: e.env(), File: f.caddyfile}))
	assert.Contains(t, e.out.String(), "No backups recorded")

	runs, err := openLedgerT(t, f.ledger).Runs(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1, "listing is not a recorded run")
}

func TestRunBackupsEmptyLedger(t *testing.T) {
	f := newFixture(t, "")
	e := newTestEnv()

	require.NoError(t, RunBackups(BackupsOptions{GlobalFlags: f.flags(), Env: e.env()}))
	assert.Contains(t, e.out.String(), "No runs recorded.")
}

func TestRunBackupsNeedsLedger(t *testing.T) {
	f := newFixture(t, "")
	flags := f.flags()
	flags.NoLedger = true

	err := RunBackups(BackupsOptions{GlobalFlags: flags, Env: newTestEnv().env()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger")
}

func TestRunRestore(t *testing.T) {
	f := newFixture(t, "")
	e := newTestEnv()
	require.NoError(t, RunApply(ApplyOptions{GlobalFlags: f.flags(), Env: e.env(), Yes: true}))
	patched := testutil.ReadFile(t, f.appTOML())

	entries, err := openLedgerT(t, f.ledger).Backups(f.appTOML())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	id := entries[0].ID

	e.clock.Advance(time.Hour)
	e.out.Reset()
	require.NoError(t, RunRestore(RestoreOptions{GlobalFlags: f.flags(), Env: e.env(), ID: id}))
	assert.Equal(t, 1, e.confirms)

	assert.Equal(t, testutil.SampleAppTOML, testutil.ReadFile(t, f.appTOML()))
	assert.Equal(t, patched, testutil.ReadFile(t, f.appTOML()+".bak"), "restore backs up what it replaces")

	entries, err = openLedgerT(t, f.ledger).Backups(f.appTOML())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, f.appTOML()+".bak", entries[0].Path, "newest first")

	e.out.Reset()
	require.NoError(t, RunRestore(RestoreOptions{GlobalFlags: f.flags(), Env: e.env(), ID: id, Yes: true}))
	assert.Contains(t, e.out.String(), "already matches")
}

func TestRunRestoreDryRun(t *testing.T) {
	f := newFixture(t, "")
	e := newTestEnv()
	require.NoError(t, RunApply(ApplyOptions{GlobalFlags: f.flags(), Env: e.env(), Yes: true}))
	patched := testutil.ReadFile(t, f.appTOML())

	entries, err := openLedgerT(t, f.ledger).Backups(f.appTOML())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e.out.Reset()
	require.NoError(t, RunRestore(RestoreOptions{GlobalFlags: f.flags(), Env: e.env(), ID: entries[0].ID, DryRun: true}))
	assert.Contains(t, e.out.String(), `-address = "tcp://0.0.0.0:1317"`)
	assert.Contains(t, e.out.String(), `+address = "tcp://localhost:1317"`)
	assert.Equal(t, patched, testutil.ReadFile(t, f.appTOML()))
	_, err = os.Stat(f.appTOML() + ".bak")
	assert.True(t, os.IsNotExist(err))
}

func TestRunRestoreMissingOriginal(t *testing.T) {
	f := newFixture(t, "")
	e := newTestEnv()
	require.NoError(t, RunApply(ApplyOptions{GlobalFlags: f.flags(), Env: e.env(), Yes: true}))

	entries, err := openLedgerT(t, f.ledger).Backups(f.configTOML())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, os.Remove(f.configTOML()))

	require.NoError(t, RunRestore(RestoreOptions{GlobalFlags: f.flags(), Env: e.env(), ID: entries[0].ID, Yes: true}))
	assert.Equal(t, testutil.SampleConfigTOML, testutil.ReadFile(t, f.configTOML()))
}

func TestRunRestoreUnknownID(t *testing.T) {
	f := newFixture(t, "")

	err := RunRestore(RestoreOptions{GlobalFlags: f.flags(), Env: newTestEnv().env(), ID: 42, Yes: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backup with id 42")
}
