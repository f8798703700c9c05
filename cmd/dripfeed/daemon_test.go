package main

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kortschak/sun"
	"github.com/pkg/errors"
	cron "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronSpec(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		spec     string
		lat, lon float64
		want     string
		wantErr  error
	}{
		{spec: "@daily", lat: nan, lon: nan, want: "@daily"},
		{spec: "*/5 * * * *", lat: nan, lon: nan, want: "*/5 * * * *"},
		{spec: "20:00", lat: nan, lon: nan, want: "0 20 * * *"},
		{spec: "08:05", lat: nan, lon: nan, want: "5 8 * * *"},
		{spec: "0:30", lat: nan, lon: nan, want: "30 0 * * *"},
		{spec: "25:00", lat: nan, lon: nan, want: "25:00"},
		{spec: "12:60", lat: nan, lon: nan, want: "12:60"},
		{spec: "@sunrise", lat: -34.9285, lon: 138.6007, want: "@sunrise -34.9285 138.6007"},
		{spec: "@noon", lat: -34.9285, lon: 138.6007, want: "@noon -34.9285 138.6007"},
		{spec: "@sunset", lat: nan, lon: nan, wantErr: errNoCoords},
		{spec: "", lat: nan, lon: nan, wantErr: errNoSchedule},
	}

	for i, test := range tests {
		got, err := cronSpec(test.spec, test.lat, test.lon)
		if test.wantErr != nil {
			if !errors.Is(err, test.wantErr) {
				t.Errorf("unexpected error for test no. %d want: %v got: %v", i, test.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("unexpected error for test no. %d: %v", i, err)
			continue
		}
		if got != test.want {
			t.Errorf("unexpected spec for test no. %d want: %s got: %s", i, test.want, got)
		}
	}
}

func TestVersionHandler(t *testing.T) {
	d := &daemon{}
	app := fiber.New()
	app.Get("/api/v1/version", d.versionHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/version", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, projectID+" "+version, string(body))
}

func TestStatusHandler(t *testing.T) {
	r, _, _ := newTestRunner(t, testQueue)
	d := &daemon{
		runner: r,
		cron:   cron.New(cron.WithParser(sun.Parser{})),
	}
	var err error
	d.entry, err = d.cron.AddFunc("@daily", func() {})
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/api/v1/status", d.statusHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/status", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status struct {
		Queued        int    `json:"queued"`
		UploadedCount int    `json:"uploaded_count"`
		LastRunDate   string `json:"last_run_date"`
		Running       bool   `json:"running"`
	}
	err = json.NewDecoder(resp.Body).Decode(&status)
	require.NoError(t, err)
	assert.Equal(t, 5, status.Queued)
	assert.Zero(t, status.UploadedCount)
	assert.Empty(t, status.LastRunDate)
	assert.False(t, status.Running)
}

func TestRunOnce(t *testing.T) {
	r, up, _ := newTestRunner(t, testQueue)
	d := &daemon{runner: r}

	d.runOnce(context.Background())

	assert.Equal(t, []string{"aaa111", "bbb222", "ccc333"}, up.uploads)
	d.mu.Lock()
	assert.False(t, d.running)
	d.mu.Unlock()
}

func TestRunOnceSkipsOverlap(t *testing.T) {
	r, _, _ := newTestRunner(t, testQueue)
	called := false
	r.connect = func(ctx context.Context) (uploader, fetcher, error) {
		called = true
		return nil, nil, errors.New("should not connect")
	}

	d := &daemon{runner: r}
	d.running = true
	d.runOnce(context.Background())

	assert.False(t, called)
}
