package tracker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ausocean/dripfeed/netinfo"
)

func TestLoadMissing(t *testing.T) {
	trk, err := Load(filepath.Join(t.TempDir(), "tracker.json"))
	require.NoError(t, err, "a missing tracker must yield a fresh one")
	assert.Equal(t, &Tracker{}, trk)
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.Error(t, err, "a corrupt tracker must not be silently replaced")
}

func TestAddSession(t *testing.T) {
	now := time.Date(2026, 2, 21, 20, 31, 36, 0, time.UTC)
	info := netinfo.Info{IP: "203.0.113.7", City: "Dhaka", Region: "Dhaka Division", Country: "Bangladesh", Org: "Example ISP Ltd"}
	videos := []Upload{
		{VideoID: "abc", Title: "clip one", URL: "https://www.youtube.com/watch?v=abc", ScheduledTime: "2026-08-20T20:00:00"},
		{VideoID: "def", Title: "clip two", URL: "https://www.youtube.com/watch?v=def", ScheduledTime: "2026-08-20T20:15:00"},
	}

	trk := &Tracker{ChannelID: "UC123", UploadedCount: 40}
	s := trk.AddSession(videos, info, now)

	assert.Equal(t, 42, trk.UploadedCount)
	assert.Equal(t, "2026-02-21T20:31:36.000000", trk.LastRunDate)
	require.Len(t, trk.History, 1)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, trk.LastRunDate, s.Date)
	assert.Equal(t, videos, s.Videos)
	assert.Equal(t, info, s.IPInfo)

	// A zero-success run still appends a session and leaves the count alone.
	trk.AddSession(nil, info, now.Add(time.Hour))
	assert.Equal(t, 42, trk.UploadedCount)
	assert.Len(t, trk.History, 2)
	assert.Equal(t, "2026-02-21T21:31:36.000000", trk.LastRunDate)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.json")
	now := time.Date(2026, 2, 21, 20, 31, 36, 123456000, time.UTC)

	trk := &Tracker{ChannelID: "UC123"}
	trk.AddSession([]Upload{{VideoID: "abc", Title: "clip", URL: "u", ScheduledTime: "s"}}, netinfo.Info{IP: "1.2.3.4"}, now)
	require.NoError(t, trk.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, trk, got)
	assert.Equal(t, "2026-02-21T20:31:36.123456", got.LastRunDate)
}

func TestSaveKeys(t *testing.T) {
	// The on-disk keys are fixed; other tooling reads this file.
	path := filepath.Join(t.TempDir(), "tracker.json")
	trk := &Tracker{ChannelID: "UC123"}
	trk.AddSession(nil, netinfo.Info{}, time.Now())
	require.NoError(t, trk.Save(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, key := range []string{`"channel_id"`, `"uploaded_count"`, `"last_run_date"`, `"upload_history"`, `"ip_info"`} {
		assert.Contains(t, string(b), key)
	}
}
