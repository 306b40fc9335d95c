package hitlog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"doctrack-platform/internal/geo"
	"doctrack-platform/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRecorder(t *testing.T) (*Recorder, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "hits.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Hit{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return NewRecorder(db, 1000), db
}

func TestRecord_UnresolvedStoresNulls(t *testing.T) {
	rec, db := setupRecorder(t)
	rec.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 30, 45, 123456000, time.FixedZone("CST", 8*3600))
	}

	err := rec.Record(context.Background(), Entry{
		DocRef:    "abcDEF12",
		IP:        "203.0.113.7",
		UserAgent: "curl/8.0",
		Location:  geo.Unresolved(),
	})
	require.NoError(t, err)

	var hit model.Hit
	require.NoError(t, db.First(&hit).Error)
	assert.Equal(t, "abcDEF12", hit.DocRef)
	assert.Equal(t, AnonymousViewer, hit.UserID)
	assert.Equal(t, "2026-03-01T04:30:45.123456Z", hit.Timestamp)
	assert.Nil(t, hit.Lat)
	assert.Nil(t, hit.Lon)
	assert.Nil(t, hit.City)
	assert.Nil(t, hit.Region)
	assert.Nil(t, hit.Country)

	var nulls int64
	require.NoError(t, db.Model(&model.Hit{}).Where("lat IS NULL AND country IS NULL").Count(&nulls).Error)
	assert.Equal(t, int64(1), nulls)
}

func TestRecord_ResolvedLocation(t *testing.T) {
	rec, _ := setupRecorder(t)

	err := rec.Record(context.Background(), Entry{
		DocRef:   "zzzzzzzz",
		ViewerID: "admin",
		IP:       "8.8.8.8",
		Location: geo.Resolved(geo.Place{Lat: 0, Lon: 0, City: "Null Island", Country: "Nowhere"}),
	})
	require.NoError(t, err)

	hits, err := rec.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hit := hits[0]
	assert.Equal(t, "admin", hit.UserID)
	require.NotNil(t, hit.Lat)
	assert.Equal(t, 0.0, *hit.Lat)
	require.NotNil(t, hit.City)
	assert.Equal(t, "Null Island", *hit.City)
	assert.True(t, strings.HasSuffix(hit.Timestamp, "Z"))
}

func TestRecent_NewestFirst(t *testing.T) {
	rec, _ := setupRecorder(t)
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		require.NoError(t, rec.Record(ctx, Entry{DocRef: fmt.Sprintf("doc%05d", i)}))
	}

	hits, err := rec.Recent(ctx, n)
	require.NoError(t, err)
	require.Len(t, hits, n)
	for i, hit := range hits {
		assert.Equal(t, fmt.Sprintf("doc%05d", n-1-i), hit.DocRef)
		if i > 0 {
			assert.Less(t, hit.ID, hits[i-1].ID)
		}
	}

	capped, err := rec.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, capped, 2)
	assert.Equal(t, "doc00004", capped[0].DocRef)
}

func TestRecent_OrderIgnoresClock(t *testing.T) {
	rec, _ := setupRecorder(t)
	ctx := context.Background()

	// 时钟回拨时仍按插入顺序
	clock := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return clock }
	require.NoError(t, rec.Record(ctx, Entry{DocRef: "first000"}))
	clock = clock.Add(-time.Hour)
	require.NoError(t, rec.Record(ctx, Entry{DocRef: "second00"}))

	hits, err := rec.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "second00", hits[0].DocRef)
}

func TestRecent_DefaultLimit(t *testing.T) {
	rec, _ := setupRecorder(t)
	rec.defaultLimit = 3
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, rec.Record(ctx, Entry{DocRef: "samedoc1"}))
	}
	hits, err := rec.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}
