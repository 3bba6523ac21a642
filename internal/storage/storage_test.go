package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yingtu35/site-deadlink-crawler/internal/config"
)

func TestOpen_CSV(t *testing.T) {
	sink, err := Open(context.Background(), config.StorageConfig{Type: config.StorageCSV, Path: t.TempDir()}, "www.example.com", nil)
	require.NoError(t, err)
	defer sink.Close()

	_, ok := sink.(*CSVStore)
	assert.True(t, ok)
}

func TestOpen_Unsupported(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Type: "s3"}, "www.example.com", nil)

	var unavailable *StorageUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "s3", unavailable.Backend)
}

func TestStorageUnavailableError(t *testing.T) {
	cause := errors.New("disk full")
	err := &StorageUnavailableError{Backend: "csv", Err: cause}

	assert.Equal(t, "csv storage unavailable: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestSiteName(t *testing.T) {
	assert.Equal(t, "www.example.com", SiteName("www.example.com"))
	assert.Equal(t, "127.0.0.1_8080", SiteName("127.0.0.1:8080"))
}
