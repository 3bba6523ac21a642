package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

func TestNewRedisStore_Keys(t *testing.T) {
	db, _ := redismock.NewClientMock()
	store := NewRedisStore(db, "", "www.example.com:8080")

	assert.Equal(t, "deadlinks:www.example.com_8080:history", store.historyKey)
	assert.Equal(t, "deadlinks:www.example.com_8080:deadlinks", store.deadlinksKey)
}

func TestRedisStore_AppendDeadlink(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, "dl", "www.example.com")
	ctx := context.TODO()

	discovered := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	payload := `{"source":"https://www.example.com/","deadlink":"https://www.example.com/missing","discovered_at":"2024-05-01T10:00:00Z"}`
	record := domain.DeadlinkRecord{
		Source:       "https://www.example.com/",
		Deadlink:     "https://www.example.com/missing",
		DiscoveredAt: discovered,
	}

	mock.ExpectRPush("dl:www.example.com:deadlinks", payload).SetVal(1)
	assert.NoError(t, store.AppendDeadlink(ctx, record))

	mock.ExpectRPush("dl:www.example.com:deadlinks", payload).SetErr(errors.New("redis error"))
	err := store.AppendDeadlink(ctx, record)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis rpush failure")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_UpsertHistory(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, "dl", "www.example.com")
	ctx := context.TODO()

	scanned := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectHSet("dl:www.example.com:history", "https://www.example.com/", "2024-05-01T10:00:00Z").SetVal(1)

	err := store.UpsertHistory(ctx, domain.HistoryRecord{URL: "https://www.example.com/", LastScanned: scanned})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_LoadHistory(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, "dl", "www.example.com")
	ctx := context.TODO()

	mock.ExpectHGetAll("dl:www.example.com:history").SetVal(map[string]string{
		"https://www.example.com/": "2024-05-01T10:00:00Z",
	})
	history, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "https://www.example.com/", history[0].URL)
	assert.True(t, history[0].LastScanned.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))

	mock.ExpectHGetAll("dl:www.example.com:history").SetVal(map[string]string{
		"https://www.example.com/": "yesterday",
	})
	_, err = store.LoadHistory(ctx)
	var unavailable *StorageUnavailableError
	assert.ErrorAs(t, err, &unavailable)

	mock.ExpectHGetAll("dl:www.example.com:history").SetErr(errors.New("connection refused"))
	_, err = store.LoadHistory(ctx)
	assert.ErrorAs(t, err, &unavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_LoadExistingResults(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, "dl", "www.example.com")
	ctx := context.TODO()

	mock.ExpectLRange("dl:www.example.com:deadlinks", 0, -1).SetVal([]string{
		`{"source":"https://www.example.com/","deadlink":"https://www.example.com/a","discovered_at":"2024-05-01T10:00:00Z"}`,
		`{"source":"https://www.example.com/b","deadlink":"https://www.example.com/a","discovered_at":"2024-05-01T10:00:01Z"}`,
	})

	records, err := store.LoadExistingResults(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "https://www.example.com/", records[0].Source)
	assert.Equal(t, "https://www.example.com/b", records[1].Source)
	assert.Equal(t, "https://www.example.com/a", records[1].Deadlink)

	mock.ExpectLRange("dl:www.example.com:deadlinks", 0, -1).SetVal([]string{"not json"})
	_, err = store.LoadExistingResults(ctx)
	var unavailable *StorageUnavailableError
	assert.ErrorAs(t, err, &unavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}
