package system

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	files := []string{"old.yaml", "new.YAML", "other.txt"}
	for i, name := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		mod := time.Now().Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(path, mod, mod))
	}

	latest, err := FindLatest(dir, ".yaml", ".yml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new.YAML"), latest)

	_, err = FindLatest(dir, ".pdf")
	assert.Error(t, err)
}

func TestEstimateRunBytes(t *testing.T) {
	// 4 jobs of 100x50 at 2x: 200*100*4/2 bytes each
	assert.Equal(t, uint64(4*200*100*2), EstimateRunBytes(4, 100, 50, 2))
}

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CheckDiskSpace(dir, 1))
	assert.Error(t, CheckDiskSpace(dir, 1<<62))
}

func TestImagePool(t *testing.T) {
	pool := NewImagePool()
	rect := image.Rect(0, 0, 4, 4)

	img := pool.Get(rect)
	assert.Equal(t, rect, img.Rect)
	pool.Put(img)

	// unknown sizes are ignored rather than cached
	pool.Put(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.Len(t, pool.pools, 1)
}
