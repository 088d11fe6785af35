package artcache

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const artUrl = "https://Images.Example.com/cover.jpg"

func TestCacheStoreAndLookup(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache := New(fs, "/cache/art")

	_, found := cache.Lookup(artUrl)
	assert.False(t, found)

	path, storeErr := cache.Store(artUrl, []byte("jpeg"))
	require.NoError(t, storeErr)
	assert.Equal(t, "/cache/art/"+Key(artUrl), path)

	cached, found := cache.Lookup(" https://images.example.com/cover.jpg ")
	assert.True(t, found)
	assert.Equal(t, path, cached)

	data, readErr := afero.ReadFile(fs, path)
	require.NoError(t, readErr)
	assert.Equal(t, []byte("jpeg"), data)

	partExists, _ := afero.Exists(fs, path+".part")
	assert.False(t, partExists)
}

func TestCacheRejectsEmptyPayload(t *testing.T) {
	cache := New(afero.NewMemMapFs(), "/cache")
	_, storeErr := cache.Store(artUrl, nil)
	assert.Error(t, storeErr)
}

func TestKeyIsHexDigest(t *testing.T) {
	key := Key(artUrl)
	assert.Len(t, key, 32)
	assert.Equal(t, key, Key("https://images.example.com/cover.jpg"))
	assert.NotEqual(t, key, Key("https://images.example.com/other.jpg"))
}

func TestFileURIAndLocalPath(t *testing.T) {
	uri := FileURI("/cache/art/abc")
	assert.Equal(t, "file:///cache/art/abc", uri)

	path, ok := LocalPath(uri)
	assert.True(t, ok)
	assert.Equal(t, "/cache/art/abc", path)

	_, ok = LocalPath("https://example.com/a.png")
	assert.False(t, ok)
}

func TestTransfers(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	transfers := NewTransfers(func() time.Time { return now })

	assert.True(t, transfers.Request(artUrl))
	assert.False(t, transfers.Request(artUrl), "duplicate request while pending")
	assert.True(t, transfers.InFlight("https://images.example.com/cover.jpg"))

	assert.True(t, transfers.Begin(artUrl), "the answer claims the pending request")
	assert.False(t, transfers.Begin(artUrl), "at most one transfer per url")
	assert.False(t, transfers.Request(artUrl))

	transfers.Finish(artUrl)
	assert.False(t, transfers.InFlight(artUrl))
	assert.True(t, transfers.Begin(artUrl))
}

func TestTransfersStaleRequestExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	transfers := NewTransfers(func() time.Time { return now })

	assert.True(t, transfers.Request(artUrl))
	now = now.Add(RequestTTL + time.Second)
	assert.True(t, transfers.Request(artUrl))

	transfers.Reset()
	assert.False(t, transfers.InFlight(artUrl))
}
