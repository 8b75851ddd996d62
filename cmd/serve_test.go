package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/adreview/internal/criteria"
	"github.com/joescharf/adreview/internal/daemon"
	"github.com/joescharf/adreview/internal/models"
)

func TestPidFile_Path(t *testing.T) {
	dir := testEnv(t)

	pf := pidFile()
	expected := filepath.Join(dir, "adreview-serve.pid")
	assert.Equal(t, expected, pf.Path)
}

func TestServeLogPath(t *testing.T) {
	dir := testEnv(t)

	logPath := serveLogPath()
	expected := filepath.Join(dir, "adreview-serve.log")
	assert.Equal(t, expected, logPath)
}

func TestServeStatusRun_NotRunning(t *testing.T) {
	testEnv(t)

	// No PID file exists, so status should show "not running" without error.
	err := serveStatusRun()
	assert.NoError(t, err)
}

func TestServeStatusRun_Running(t *testing.T) {
	dir := testEnv(t)

	pf := daemon.NewPIDFile(filepath.Join(dir, "adreview-serve.pid"))
	require.NoError(t, pf.Write())

	assert.NoError(t, serveStatusRun())
}

func TestServeStopRun_NotRunning(t *testing.T) {
	testEnv(t)

	// No PID file exists, so stop should return an error.
	err := serveStopRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestServeStartRun_AlreadyRunning(t *testing.T) {
	dir := testEnv(t)

	// Write a PID file for the current process (which is alive).
	pf := daemon.NewPIDFile(filepath.Join(dir, "adreview-serve.pid"))
	require.NoError(t, pf.Write())
	t.Cleanup(func() { _ = os.Remove(pf.Path) })

	err := serveStartRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestServeStartRun_DryRun(t *testing.T) {
	dir := testEnv(t)
	dryRun = true
	defer func() { dryRun = false }()

	require.NoError(t, serveStartRun())

	_, err := os.Stat(filepath.Join(dir, "adreview-serve.pid"))
	assert.True(t, os.IsNotExist(err), "dry run must not write a PID file")
}

func TestPreload_ManifestAndFiles(t *testing.T) {
	dir := testEnv(t)

	manifestPath := filepath.Join(dir, "videos.txt")
	require.NoError(t, os.WriteFile(manifestPath, []byte("http://x/a.mp4\n\nhttp://x/b.mp4\n"), 0o644))
	clip := filepath.Join(dir, "local.mp4")
	require.NoError(t, os.WriteFile(clip, []byte("data"), 0o644))
	viper.Set("manifest", manifestPath)

	sess := newSession()
	require.NoError(t, preload(context.Background(), sess, []string{clip}))

	st := sess.State()
	require.Len(t, st.Queue, 3)
	assert.Equal(t, "a.mp4", st.Queue[0].Name)
	assert.Equal(t, "local.mp4", st.Queue[2].Name)
	assert.True(t, st.Queue[2].IsLocalFile)
	assert.Equal(t, models.PhaseReviewing, st.Phase)
	assert.Equal(t, 0, st.Cursor)
}

func TestPreload_MissingManifestIsSkipped(t *testing.T) {
	dir := testEnv(t)
	viper.Set("manifest", filepath.Join(dir, "missing.json"))

	sess := newSession()
	require.NoError(t, preload(context.Background(), sess, nil))
	assert.Equal(t, models.PhaseEmpty, sess.Phase())
}

func TestPreload_MissingLocalFile(t *testing.T) {
	dir := testEnv(t)

	sess := newSession()
	err := preload(context.Background(), sess, []string{filepath.Join(dir, "nope.mp4")})
	assert.Error(t, err)
}

func TestWatchConfig_NoFile(t *testing.T) {
	testEnv(t)
	assert.False(t, watchConfig())
}

func TestWatchConfig_ReloadsCriteria(t *testing.T) {
	dir := testEnv(t)
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("review:\n  criteria: [\"Pacing\"]\n"), 0o644))
	viper.SetConfigFile(cfgPath)
	require.NoError(t, viper.ReadInConfig())

	sess := newSession()
	sess.AddURLs([]string{"http://x/a.mp4", "http://x/b.mp4"})
	require.Equal(t, "Pacing", sess.State().Criteria[0].Label)

	require.True(t, watchConfig())
	require.NoError(t, os.WriteFile(cfgPath, []byte("review:\n  criteria: [\"Logo\", \"Voice\"]\n"), 0o644))

	assert.Eventually(t, func() bool {
		labels := criteria.FromConfig{}.Labels()
		return len(labels) == 2 && labels[0] == "Logo"
	}, 5*time.Second, 50*time.Millisecond)

	_, ok := sess.Decide(models.DecisionAccept)
	require.True(t, ok)
	st := sess.State()
	require.Len(t, st.Criteria, 2)
	assert.Equal(t, "Voice", st.Criteria[1].Label)
}

func TestPrintSummary(t *testing.T) {
	testEnv(t)

	sess := newSession()
	printSummary(sess)

	sess.AddURLs([]string{"http://x/a.mp4", "http://x/b.mp4"})
	_, ok := sess.Decide(models.DecisionAccept)
	require.True(t, ok)
	_, ok = sess.Decide(models.DecisionReject)
	require.True(t, ok)
	printSummary(sess)
}
