package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/city-weather-report/internal/domain"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if closeErr := a.Close(); closeErr != nil {
			t.Fatalf("close archive: %v", closeErr)
		}
	})
	return a
}

func sampleRecords() []domain.WeatherRecord {
	return []domain.WeatherRecord{
		{City: "London", Temperature: 12.5, Humidity: 76, Pressure: 1012, Weather: "light rain", WindSpeed: 4.1, Cloudiness: 75},
		{City: "Cairo", Temperature: 31.2, Humidity: 20, Pressure: 1008, Weather: "clear sky", WindSpeed: 5.7, Cloudiness: 0},
	}
}

func TestArchive_RoundTrip(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)

	at := time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC)
	require.NoError(t, a.Archive(ctx, "run-1", at, sampleRecords()))

	got, err := a.History(ctx, "Cairo")
	require.NoError(t, err)
	if diff := cmp.Diff(sampleRecords()[1:], got); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}
}

func TestArchive_AppendsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)

	first := sampleRecords()
	second := sampleRecords()
	second[0].Temperature = 14.0

	require.NoError(t, a.Archive(ctx, "run-1", time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC), first))
	require.NoError(t, a.Archive(ctx, "run-2", time.Date(2024, 4, 28, 6, 0, 0, 0, time.UTC), second))

	runs, err := a.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, runs)

	hist, err := a.History(ctx, "London")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.InDelta(t, 12.5, hist[0].Temperature, 1e-9)
	assert.InDelta(t, 14.0, hist[1].Temperature, 1e-9)
}

func TestArchive_EmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)

	require.NoError(t, a.Archive(ctx, "run-1", time.Now(), nil))
	runs, err := a.Runs(ctx)
	require.NoError(t, err)
	assert.Zero(t, runs)
}

func TestArchive_CanceledContextRollsBack(t *testing.T) {
	a := openTestArchive(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, a.Archive(ctx, "run-1", time.Now(), sampleRecords()))

	runs, err := a.Runs(context.Background())
	require.NoError(t, err)
	assert.Zero(t, runs)
}

func TestOpen_FileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	a, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, a.Archive(context.Background(), "run-1", time.Now(), sampleRecords()))
	require.NoError(t, a.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	runs, err := reopened.Runs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, runs)
}

func TestArchive_CloseReleasesHandle(t *testing.T) {
	a, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	_, err = a.Runs(context.Background())
	require.Error(t, err, "a closed archive must not accept queries")

	var unopened *Archive
	assert.NoError(t, unopened.Close())
}

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN(":memory:")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", dsn)

	dsn, err = buildDSN("file:x.db?mode=rwc")
	require.NoError(t, err)
	assert.Equal(t, "file:x.db?mode=rwc", dsn)

	dsn, err = buildDSN("history.db")
	require.NoError(t, err)
	assert.Equal(t, "file:history.db?_busy_timeout=5000&_journal_mode=WAL", dsn)
}
