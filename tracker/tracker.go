/*
DESCRIPTION
  tracker.go provides the on-disk record of upload progress: a
  lifetime counter and an append-only history of upload sessions.
  The tracker is the source of truth for how far through the backlog
  we are; queue entries are deleted once consumed, so the tracker is
  the only place past uploads remain visible.

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

// Package tracker persists upload progress as a small JSON file. The
// record is mutated only by appending sessions and bumping counters;
// history is never rewritten or deleted.
package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ausocean/dripfeed/netinfo"
)

// Timestamp is the layout for tracker dates: ISO 8601 with
// microseconds and no zone suffix, on the host's wall clock.
const Timestamp = "2006-01-02T15:04:05.000000"

// Upload records one successfully uploaded video.
type Upload struct {
	VideoID       string `json:"video_id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	ScheduledTime string `json:"scheduled_time"`
}

// Session records one run of the uploader, including runs where
// nothing succeeded; the attempt is part of the audit trail.
type Session struct {
	ID     string       `json:"id"`
	Date   string       `json:"date"`
	Videos []Upload     `json:"videos"`
	IPInfo netinfo.Info `json:"ip_info"`
}

// Tracker is the progress record backing tracker.json.
type Tracker struct {
	ChannelID     string    `json:"channel_id"`
	UploadedCount int       `json:"uploaded_count"`
	LastRunDate   string    `json:"last_run_date"`
	History       []Session `json:"upload_history"`
}

// Load reads the tracker at path. A missing file yields a fresh
// zero-valued tracker; a file that exists but cannot be decoded is an
// error, since continuing would clobber the upload history on the
// next save.
func Load(path string) (*Tracker, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Tracker{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read tracker file: %w", err)
	}

	t := new(Tracker)
	err = json.Unmarshal(b, t)
	if err != nil {
		return nil, fmt.Errorf("could not decode tracker from %s: %w", path, err)
	}
	return t, nil
}

// AddSession appends a session holding the given upload results and
// network snapshot, adds the results to the lifetime count, and
// updates the last run date. It returns the appended session. A run
// where nothing succeeded is recorded with an empty video list.
func (t *Tracker) AddSession(videos []Upload, info netinfo.Info, now time.Time) *Session {
	if videos == nil {
		videos = []Upload{}
	}
	s := Session{
		ID:     uuid.New().String(),
		Date:   now.Format(Timestamp),
		Videos: videos,
		IPInfo: info,
	}
	t.History = append(t.History, s)
	t.UploadedCount += len(videos)
	t.LastRunDate = s.Date
	return &t.History[len(t.History)-1]
}

// Save writes the tracker to path as indented JSON.
func (t *Tracker) Save(path string) error {
	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode tracker: %w", err)
	}
	err = os.WriteFile(path, b, 0644)
	if err != nil {
		return fmt.Errorf("could not write tracker file: %w", err)
	}
	return nil
}
