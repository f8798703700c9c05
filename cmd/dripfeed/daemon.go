/*
DESCRIPTION
  daemon.go runs the uploader on a recurring schedule and serves a
  small status API while idle.

AUTHORS
  Alan Noble <alan@ausocean.org>

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean)

  This file is part of Dripfeed. Dripfeed is free software: you can
  redistribute it and/or modify it under the terms of the GNU
  General Public License as published by the Free Software
  Foundation, either version 3 of the License, or (at your option)
  any later version.

  Dripfeed is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/kortschak/sun"
	"github.com/pkg/errors"
	cron "github.com/robfig/cron/v3"

	"github.com/ausocean/dripfeed/notify"
	"github.com/ausocean/dripfeed/queue"
	"github.com/ausocean/dripfeed/tracker"
)

// The default location ID, consistent with IANA Time Zone database
// convention.
const defaultLocation = "Australia/Adelaide"

var (
	errNoSchedule = errors.New("no schedule specified")
	errNoCoords   = errors.New("solar schedule requires -lat and -lon")
)

// daemon runs batches on a cron schedule and answers status requests.
type daemon struct {
	runner *runner
	cron   *cron.Cron
	entry  cron.EntryID

	mu      sync.Mutex
	running bool
}

// runDaemon schedules recurring runs and serves the status API until
// the context is cancelled.
func runDaemon(ctx context.Context, r *runner, cfg *config) error {
	loc, err := time.LoadLocation(cfg.location)
	if err != nil {
		return fmt.Errorf("could not load location %s: %w", cfg.location, err)
	}

	spec, err := cronSpec(cfg.schedule, cfg.lat, cfg.lon)
	if err != nil {
		return err
	}

	d := &daemon{
		runner: r,
		cron:   cron.New(cron.WithParser(sun.Parser{}), cron.WithLocation(loc)),
	}
	d.entry, err = d.cron.AddFunc(spec, func() { d.runOnce(ctx) })
	if err != nil {
		return fmt.Errorf("could not schedule %q: %w", spec, err)
	}
	d.cron.Start()
	log.Printf("scheduled runs at %q in %s, first at %v", spec, cfg.location, d.cron.Entry(d.entry).Next)

	app := fiber.New()
	app.Use(recover.New())
	if cfg.debug {
		app.Use(func(c *fiber.Ctx) error {
			log.Println(c.Path())
			return c.Next()
		})
	}

	v1 := app.Group("/api/v1")
	v1.Get("/version", d.versionHandler)
	v1.Get("/status", d.statusHandler)

	go func() {
		<-ctx.Done()
		log.Printf("shutting down")
		<-d.cron.Stop().Done()
		err := app.Shutdown()
		if err != nil {
			log.Printf("server shutdown error: %v", err)
		}
	}()

	listenOn := fmt.Sprintf("%s:%d", cfg.host, cfg.port)
	log.Printf("listening on %s", listenOn)
	err = app.Listen(listenOn)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// runOnce performs a single scheduled run, skipping it when the
// previous one is still in progress.
func (d *daemon) runOnce(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		log.Printf("previous run still in progress, skipping")
		return
	}
	d.running = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	sum, err := d.runner.run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		log.Printf("run cancelled")
	case err != nil:
		d.logAndNotify(ctx, notify.Health, "run failed: %v", err)
	default:
		d.runner.report(ctx, sum)
	}
}

// logAndNotify logs the message and emails it when a notifier is
// configured.
func (d *daemon) logAndNotify(ctx context.Context, kind notify.Kind, msg string, args ...interface{}) {
	log.Printf(msg, args...)
	if d.runner.notifier == nil {
		return
	}
	err := d.runner.notifier.Send(ctx, kind, fmt.Sprintf(msg, args...))
	if err != nil {
		log.Printf("could not send notification: %v", err)
	}
}

// versionHandler reports the service name and version.
func (d *daemon) versionHandler(c *fiber.Ctx) error {
	c.WriteString(projectID + " " + version)
	return nil
}

// statusHandler reports the queue and tracker state, whether a run is
// in flight, and the next scheduled run.
func (d *daemon) statusHandler(c *fiber.Ctx) error {
	queued, err := queue.Count(d.runner.cfg.queue)
	if err != nil {
		return fmt.Errorf("could not count queue: %w", err)
	}

	trk, err := tracker.Load(d.runner.cfg.tracker)
	if err != nil {
		return fmt.Errorf("could not load tracker: %w", err)
	}

	d.mu.Lock()
	running := d.running
	d.mu.Unlock()

	return c.JSON(fiber.Map{
		"queued":         queued,
		"uploaded_count": trk.UploadedCount,
		"last_run_date":  trk.LastRunDate,
		"running":        running,
		"next_run":       d.cron.Entry(d.entry).Next,
	})
}

// cronSpec renders the -schedule flag as a spec line for the cron
// scheduler. A bare time of day becomes a daily cron line; solar
// specs (@sunrise, @noon, @sunset) have the coordinates appended, as
// implemented by github.com/kortschak/sun; anything else passes
// through for the parser to judge.
func cronSpec(spec string, lat, lon float64) (string, error) {
	if spec == "" {
		return "", errNoSchedule
	}

	if strings.HasPrefix(spec, "@sunrise") || strings.HasPrefix(spec, "@noon") || strings.HasPrefix(spec, "@sunset") {
		if math.IsNaN(lat) || math.IsNaN(lon) {
			return "", errNoCoords
		}
		return fmt.Sprintf("%s %v %v", spec, lat, lon), nil
	}

	h, m, ok := timeOfDay(spec)
	if ok {
		return fmt.Sprintf("%d %d * * *", m, h), nil
	}

	return spec, nil
}

// timeOfDay parses a 24-hour hh:mm time.
func timeOfDay(s string) (h, m int, ok bool) {
	split := strings.Split(s, ":")
	if len(split) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(split[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err = strconv.Atoi(split[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
