package scope

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"plantkeeper/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFileRoundTrip(t *testing.T) {
	f := SessionFile{Path: filepath.Join(t.TempDir(), "auth", "session.json")}

	s, err := f.Load()
	require.NoError(t, err)
	assert.Nil(t, s, "missing file means signed out")

	require.NoError(t, f.Save(Session{AccessToken: "tok", UserID: "u1"}))
	s, err = f.Load()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "u1", s.UserID)

	info, err := os.Stat(f.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, f.Clear())
	require.NoError(t, f.Clear(), "clearing twice is fine")
	s, err = f.Load()
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSessionFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0600))

	_, err := SessionFile{Path: path}.Load()
	assert.Error(t, err)
}

func TestWatchSessionFileAppliesChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	r := NewResolver(store.NewMemory())

	w, err := WatchSessionFile(path, r)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, SessionFile{Path: path}.Save(Session{AccessToken: "tok", UserID: "watched"}))
	assert.Eventually(t, func() bool {
		return r.Namespace() == "user:watched"
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, SessionFile{Path: path}.Clear())
	assert.Eventually(t, func() bool {
		return r.Namespace() == Anonymous
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "close is idempotent")
}
