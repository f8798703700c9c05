/*
DESCRIPTION
  run.go performs one upload run: look up network info, authenticate,
  read the queue, fetch and upload a batch of videos, prune the queue,
  and persist the session to the tracker.

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

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	youtubeapi "google.golang.org/api/youtube/v3"

	"github.com/ausocean/dripfeed/drive"
	"github.com/ausocean/dripfeed/gauth"
	"github.com/ausocean/dripfeed/netinfo"
	"github.com/ausocean/dripfeed/notify"
	"github.com/ausocean/dripfeed/queue"
	"github.com/ausocean/dripfeed/schedule"
	"github.com/ausocean/dripfeed/tracker"
	"github.com/ausocean/dripfeed/youtube"
)

var errNoSecrets = errors.New("YOUTUBE_SECRETS environment variable not set")

// localTimeLayout renders operator-local times, zoneless, for the
// tracker and the session log.
const localTimeLayout = "2006-01-02T15:04:05"

// uploader is the YouTube surface a run needs.
// *youtube.Service implements it.
type uploader interface {
	OwnChannel(ctx context.Context) (*youtube.Channel, error)
	Upload(ctx context.Context, path string, opts ...youtube.VideoUploadOption) (*youtubeapi.Video, error)
}

// fetcher is the Drive surface a run needs.
// *drive.Fetcher implements it.
type fetcher interface {
	Fetch(ctx context.Context, url string, index int) (string, error)
}

// runner holds everything a run needs. The connect function is
// indirect so tests can substitute fakes for the Google services.
type runner struct {
	cfg      *config
	planner  *schedule.Planner
	resolver *netinfo.Resolver
	notifier *notify.Notifier // Nil when notification is not configured.
	connect  func(ctx context.Context) (uploader, fetcher, error)
}

// summary describes a completed run for reporting.
type summary struct {
	channel   *youtube.Channel
	info      netinfo.Info
	uploaded  []tracker.Upload
	attempted int // Batch size attempted; zero means the queue was empty.
	lifetime  int
	remaining int
	logPath   string
	when      time.Time
}

// newRunner validates the configuration and assembles a runner.
func newRunner(ctx context.Context, cfg *config) (*runner, error) {
	p, err := schedule.NewPlanner(cfg.batch, cfg.publish, cfg.gap, cfg.days, cfg.tz)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}
	r := &runner{
		cfg:      cfg,
		planner:  p,
		resolver: netinfo.New(),
		notifier: newNotifier(ctx, cfg),
	}
	r.connect = func(ctx context.Context) (uploader, fetcher, error) {
		return connect(ctx, cfg)
	}
	return r, nil
}

// connect builds the authenticated YouTube and Drive services. Both
// share one OAuth2 client, so a token refresh serves them both.
func connect(ctx context.Context, cfg *config) (uploader, fetcher, error) {
	secrets := os.Getenv("YOUTUBE_SECRETS")
	if secrets == "" {
		return nil, nil, errNoSecrets
	}

	client, err := gauth.Client(ctx, secrets, cfg.token, youtube.Scope, drive.Scope)
	if err != nil {
		return nil, nil, fmt.Errorf("could not authenticate: %w", err)
	}

	svc, err := youtube.NewService(ctx, client)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create youtube service: %w", err)
	}

	fet, err := drive.NewFetcher(ctx, client, cfg.workdir)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create drive fetcher: %w", err)
	}

	return svc, fet, nil
}

// run performs one upload run and returns its summary. Failures of
// individual videos are logged and skipped; the failed links stay in
// the queue for the next run. A cancelled context aborts the batch
// between videos and surfaces as context.Canceled.
func (r *runner) run(ctx context.Context) (*summary, error) {
	now := time.Now()

	info := r.resolver.Lookup(ctx)
	log.Printf("upload location: IP %s, %s, %s, %s, ISP %s", info.IP, info.City, info.Region, info.Country, info.Org)

	up, fet, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	ch, err := up.OwnChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not look up channel: %w", err)
	}
	log.Printf("authenticated as %s (channel %s)", ch.Title, ch.ID)

	trk, err := tracker.Load(r.cfg.tracker)
	if err != nil {
		return nil, err
	}
	if trk.ChannelID == "" {
		trk.ChannelID = ch.ID
	}

	links, err := queue.Read(r.cfg.queue)
	if err != nil {
		return nil, fmt.Errorf("could not read queue: %w", err)
	}
	if len(links) == 0 {
		log.Printf("queue is empty, all %d videos uploaded", trk.UploadedCount)
		return &summary{channel: ch, info: info, lifetime: trk.UploadedCount, when: now}, nil
	}

	batch := links
	if len(batch) > r.planner.BatchSize {
		batch = batch[:r.planner.BatchSize]
	}
	log.Printf("uploading %d of %d queued videos", len(batch), len(links))

	var uploaded []tracker.Upload
	for i, link := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Printf("fetching video %d of %d", i+1, len(batch))
		path, err := fet.Fetch(ctx, link, i)
		if err != nil {
			log.Printf("skipping video %d: %v", i+1, err)
			continue
		}

		local, utc := r.planner.At(i, now)
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		log.Printf("uploading %q for publication at %s", title, local.Format(localTimeLayout))

		vid, err := up.Upload(ctx, path,
			youtube.WithTitle(title),
			youtube.WithPublishAt(utc),
			youtube.WithMadeForKids(false),
			youtube.WithProgress(func(pct int) { log.Printf("uploading %q: %d%%", title, pct) }),
		)
		if rmErr := os.Remove(path); rmErr != nil {
			log.Printf("could not remove %s: %v", path, rmErr)
		}
		if err != nil {
			log.Printf("skipping video %d: %v", i+1, err)
			continue
		}

		uploaded = append(uploaded, tracker.Upload{
			VideoID:       vid.Id,
			Title:         title,
			URL:           youtube.WatchURL(vid.Id),
			ScheduledTime: local.Format(localTimeLayout),
		})
		log.Printf("uploaded %s", youtube.WatchURL(vid.Id))
	}

	if len(uploaded) > 0 {
		_, err = queue.Prune(r.cfg.queue, len(uploaded))
		switch {
		case errors.Is(err, queue.ErrShortQueue):
			log.Printf("queue had fewer links than the %d uploaded, leaving it untouched", len(uploaded))
		case err != nil:
			return nil, fmt.Errorf("could not prune queue: %w", err)
		}
	}

	remaining, err := queue.Count(r.cfg.queue)
	if err != nil {
		log.Printf("could not count remaining queue: %v", err)
	}

	trk.AddSession(uploaded, info, now)
	err = trk.Save(r.cfg.tracker)
	if err != nil {
		return nil, err
	}

	sum := &summary{
		channel:   ch,
		info:      info,
		uploaded:  uploaded,
		attempted: len(batch),
		lifetime:  trk.UploadedCount,
		remaining: remaining,
		when:      now,
	}
	sum.logPath, err = writeSessionLog(r.cfg.workdir, sum)
	if err != nil {
		log.Printf("could not write session log: %v", err)
	} else {
		log.Printf("session log saved to %s", sum.logPath)
	}

	return sum, nil
}
