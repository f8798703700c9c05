/*
DESCRIPTION
  Dripfeed is a command-line tool that drip-feeds a backlog of videos
  onto a YouTube channel. Each run it takes the next batch of Google
  Drive share links from a flat-file queue, downloads each file,
  uploads it to YouTube as a private video scheduled to go public
  about six months later, prunes the consumed links from the queue,
  and records the session in a JSON tracker.

AUTHORS
  Alan Noble <alan@ausocean.org>
  Trek Hopton <trek@ausocean.org>

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

// Dripfeed uploads queued Google Drive videos to YouTube on a drip
// schedule. It assumes YouTube OAuth2 client secrets are pointed at by
// the environment variable YOUTUBE_SECRETS, and a stored token by the
// -token flag or the YOUTUBE_TOKEN environment variable. Both accept a
// plain file path or a gs:// URI.
package main

import (
	"context"
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/pkg/errors"

	"github.com/ausocean/dripfeed/gauth"
	"github.com/ausocean/dripfeed/notify"
	"github.com/ausocean/dripfeed/schedule"
)

// Project constants.
const (
	projectID = "dripfeed"
	version   = "v0.1.0"
)

// config holds the runtime knobs, all settable by flags.
type config struct {
	queue    string  // Queue file of Drive share links.
	tracker  string  // Tracker JSON file.
	token    string  // OAuth2 token path or gs:// URI.
	workdir  string  // Directory for downloads and session logs.
	batch    int     // Maximum videos per run.
	publish  string  // Publish time of day, hh:mm.
	gap      int     // Minutes between publish times in a batch.
	days     int     // Days until videos go public.
	tz       float64 // Publish time UTC offset in hours.
	notify   string  // Ops email address override.
	daemon   bool    // Run on a schedule instead of once.
	schedule string  // Cron spec, time of day or solar time for daemon runs.
	location string  // IANA time zone for the daemon schedule.
	lat, lon float64 // Coordinates for solar schedules.
	host     string  // Host we listen on in daemon mode.
	port     int     // Port we listen on in daemon mode.
	debug    bool    // Run in debug mode.
}

func main() {
	defaultPort := 8085
	v := os.Getenv("PORT")
	if v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			defaultPort = i
		}
	}

	defaultToken := os.Getenv("YOUTUBE_TOKEN")
	if defaultToken == "" {
		defaultToken = "youtube_token.json"
	}

	var cfg config
	flag.StringVar(&cfg.queue, "queue", "videos.txt", "Queue file of Google Drive share links")
	flag.StringVar(&cfg.tracker, "tracker", "tracker.json", "Upload tracker JSON file")
	flag.StringVar(&cfg.token, "token", defaultToken, "OAuth2 token file path or gs:// URI")
	flag.StringVar(&cfg.workdir, "workdir", ".", "Directory for downloads and session logs")
	flag.IntVar(&cfg.batch, "batch", schedule.DefaultBatchSize, "Maximum videos uploaded per run")
	flag.StringVar(&cfg.publish, "publish", schedule.DefaultTimeOfDay, "Publish time of day, hh:mm")
	flag.IntVar(&cfg.gap, "gap", schedule.DefaultGapMinutes, "Minutes between publish times within a batch")
	flag.IntVar(&cfg.days, "days", schedule.DefaultDaysAhead, "Days from upload until videos go public")
	flag.Float64Var(&cfg.tz, "tz", schedule.DefaultUTCOffset, "UTC offset of publish times, in hours")
	flag.StringVar(&cfg.notify, "notify", "", "Ops email address for run notifications")
	flag.BoolVar(&cfg.daemon, "daemon", false, "Run on a recurring schedule instead of once")
	flag.StringVar(&cfg.schedule, "schedule", "@daily", "Daemon run schedule: cron spec, hh:mm, or @sunrise/@noon/@sunset")
	flag.StringVar(&cfg.location, "location", defaultLocation, "IANA time zone of the daemon schedule")
	flag.Float64Var(&cfg.lat, "lat", math.NaN(), "Latitude for solar schedules")
	flag.Float64Var(&cfg.lon, "lon", math.NaN(), "Longitude for solar schedules")
	flag.StringVar(&cfg.host, "host", "localhost", "Host we run on in daemon mode")
	flag.IntVar(&cfg.port, "port", defaultPort, "Port we listen on in daemon mode")
	flag.BoolVar(&cfg.debug, "debug", false, "Run in debug mode.")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := newRunner(ctx, &cfg)
	if err != nil {
		log.Fatalf("could not set up: %v", err)
	}

	if cfg.daemon {
		err = runDaemon(ctx, r, &cfg)
		if err != nil {
			log.Fatalf("daemon error: %v", err)
		}
		return
	}

	sum, err := r.run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		log.Printf("cancelled by user")
		return
	case err != nil:
		log.Fatalf("run failed: %v", err)
	}
	r.report(ctx, sum)
}

// newNotifier builds the ops email notifier, or returns nil when
// notification is not configured. Notification is enabled by the
// -notify flag or the OPS_EMAIL environment variable; without the
// mailjet keys in the secrets named by DRIPFEED_SECRETS the notifier
// logs but does not send.
func newNotifier(ctx context.Context, cfg *config) *notify.Notifier {
	recipient, period := notify.GetOpsEnvVars()
	if cfg.notify != "" {
		recipient = cfg.notify
	} else if os.Getenv("OPS_EMAIL") == "" {
		return nil
	}

	opts := []notify.Option{
		notify.WithRecipient(recipient),
		notify.WithStore(notify.NewFileTimeStore(filepath.Join(cfg.workdir, "notify.json"), period)),
	}

	secrets, err := gauth.GetSecrets(ctx, projectID, []string{"mailjetPublicKey", "mailjetPrivateKey"})
	if err != nil {
		log.Printf("could not get %s secrets, notifications will be log only: %v", projectID, err)
	} else {
		opts = append(opts, notify.WithSecrets(secrets))
	}

	n := &notify.Notifier{}
	err = n.Init(opts...)
	if err != nil {
		log.Printf("could not set up email notifier: %v", err)
		return nil
	}
	return n
}
