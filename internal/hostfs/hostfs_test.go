package hostfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain ensures the async worker never outlives Close.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestOS_Probes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "save", "slot.json")
	var fs OS

	assert.False(t, fs.Exists(filepath.Dir(path)))
	assert.Equal(t, int64(-1), fs.SizeOf(path))
	_, err := fs.ReadAll(path)
	assert.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, fs.CreateDirectory(filepath.Dir(path)))
	assert.True(t, fs.Exists(filepath.Dir(path)))
	assert.Equal(t, int64(-1), fs.SizeOf(filepath.Dir(path)), "directories have no file size")

	require.NoError(t, fs.WriteAll(path, []byte(`{"0,0,1":1}`)))
	assert.Equal(t, int64(11), fs.SizeOf(path))
	data, err := fs.ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, `{"0,0,1":1}`, string(data))
}

func TestMemory_WriteNeedsParent(t *testing.T) {
	m := NewMemory()
	err := m.WriteAll("/proj/save/a.json", []byte("{}"))
	assert.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, m.CreateDirectory("/proj/save"))
	assert.True(t, m.Exists("/proj"))
	require.NoError(t, m.WriteAll("/proj/save/a.json", []byte("{}")))
	assert.Equal(t, int64(2), m.SizeOf("/proj/save/a.json"))

	got, ok := m.File("/proj/save/a.json")
	require.True(t, ok)
	assert.Equal(t, "{}", string(got))
}

func TestMemory_FailureInjection(t *testing.T) {
	m := NewMemory()
	m.Put("/p/a.json", []byte("{}"))
	boom := errors.New("boom")

	m.FailReads(boom)
	_, err := m.ReadAll("/p/a.json")
	assert.ErrorIs(t, err, boom)
	_, err = m.ReadAll("/p/missing.json")
	assert.ErrorIs(t, err, ErrNotExist, "missing files still report not-exist")

	m.FailWrites(boom)
	assert.ErrorIs(t, m.WriteAll("/p/a.json", nil), boom)

	m.FailMkdir(boom)
	assert.ErrorIs(t, m.CreateDirectory("/q"), boom)
}

func TestDeferred_AppliesOnStep(t *testing.T) {
	m := NewMemory()
	d := NewDeferred(m, 0)

	require.NoError(t, d.CreateDirectory("/p"))
	require.NoError(t, d.WriteAll("/p/a.json", []byte("hello")))
	assert.False(t, d.Exists("/p"), "nothing is visible before a step")
	assert.Equal(t, 2, d.Pending())

	applied, err := d.Step()
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, d.Exists("/p"))
	assert.Equal(t, int64(-1), d.SizeOf("/p/a.json"))

	require.NoError(t, d.Flush())
	assert.Equal(t, int64(5), d.SizeOf("/p/a.json"))
	assert.Equal(t, 0, d.Pending())

	applied, err = d.Step()
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestDeferred_ChunkedWriteGrowsFile(t *testing.T) {
	m := NewMemory()
	m.Put("/p/a.json", []byte("0123456789"))
	d := NewDeferred(m, 4)

	require.NoError(t, d.WriteAll("/p/a.json", []byte("abcdefghij")))
	var sizes []int64
	for d.Pending() > 0 {
		_, err := d.Step()
		require.NoError(t, err)
		sizes = append(sizes, d.SizeOf("/p/a.json"))
	}
	assert.Equal(t, []int64{4, 8, 10}, sizes)
	got, _ := m.File("/p/a.json")
	assert.Equal(t, "abcdefghij", string(got))
}

func TestRecorder_CountsCalls(t *testing.T) {
	r := NewRecorder(NewMemory())
	_ = r.CreateDirectory("/p")
	_ = r.WriteAll("/p/a", []byte("x"))
	_ = r.Exists("/p")
	_ = r.SizeOf("/p/a")
	_, _ = r.ReadAll("/p/a")

	assert.Equal(t, 5, r.Len())
	assert.Equal(t, 1, r.Count(OpWrite))
	assert.Equal(t, Call{Op: OpMkdir, Path: "/p"}, r.Calls()[0])
	r.Reset()
	assert.Equal(t, 0, r.Len())
}

func TestAsync_CompletesInBackground(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "save")
	path := filepath.Join(dir, "slot.json")
	a := NewAsync(context.Background())

	require.NoError(t, a.CreateDirectory(dir))
	require.Eventually(t, func() bool { return a.Exists(dir) }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, a.WriteAll(path, []byte(`{"0,0,5":42}`)))
	require.Eventually(t, func() bool { return a.SizeOf(path) == 12 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, a.Close())
	assert.ErrorIs(t, a.WriteAll(path, nil), ErrClosed)
	assert.NoError(t, a.Close(), "second close is a no-op")
}

func TestAsync_SurfacesBackgroundFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	a := NewAsync(context.Background())
	defer a.Close()

	// A directory cannot be created beneath a regular file.
	require.NoError(t, a.CreateDirectory(filepath.Join(blocker, "sub")))
	require.Eventually(t, func() bool { return a.Err() != nil }, 2*time.Second, 5*time.Millisecond)

	err := a.WriteAll(filepath.Join(dir, "x.json"), []byte("{}"))
	assert.Error(t, err)
}

func TestAsync_CancelledContextRejectsOperations(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	a := NewAsync(ctx)
	cancel()

	// The queue has room, but nothing may be accepted once the worker is told to stop.
	for i := 0; i < 20; i++ {
		assert.ErrorIs(t, a.WriteAll(filepath.Join(dir, "slot.json"), []byte("{}")), ErrClosed)
		assert.ErrorIs(t, a.CreateDirectory(filepath.Join(dir, "sub")), ErrClosed)
	}
	require.NoError(t, a.Close())
	assert.False(t, a.Exists(filepath.Join(dir, "slot.json")))
}
