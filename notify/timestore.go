/*
LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean)

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  It is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// TimeStore is an interface for notification persistence.
type TimeStore interface {
	Sendable(context.Context, string) (bool, error) // Returns true if a message is sendable.
	Sent(context.Context, string) error             // Records the time a message was sent.
}

// FileTimeStore implements a TimeStore that uses a local JSON file
// for persistence, mapping notification keys to the time a message
// with that key was last sent.
type FileTimeStore struct {
	mu     sync.Mutex
	path   string
	period time.Duration
}

// NewFileTimeStore returns a FileTimeStore that records send times in
// the JSON file at path. A message with a given key is sendable once
// the period has elapsed since it was last sent.
func NewFileTimeStore(path string, period time.Duration) *FileTimeStore {
	return &FileTimeStore{path: path, period: period}
}

// Sendable retrieves the notification time stored against the given
// key and returns true either if (1) the period has elapsed since the
// last time a message with the key was sent or (2) a message is being
// sent for the first time.
func (ts *FileTimeStore) Sendable(ctx context.Context, key string) (bool, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	times, err := ts.load()
	if err != nil {
		return true, err // Unexpected store error.
	}

	t, ok := times[key]
	if !ok {
		return true, nil // No record of sending this kind of message.
	}
	return time.Since(t) >= ts.period, nil
}

// Sent records the time that a message with the given key was sent.
func (ts *FileTimeStore) Sent(ctx context.Context, key string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	times, err := ts.load()
	if err != nil {
		return err
	}
	times[key] = time.Now()

	data, err := json.Marshal(times)
	if err != nil {
		return fmt.Errorf("could not marshal send times: %w", err)
	}
	err = os.WriteFile(ts.path, data, 0644)
	if err != nil {
		return fmt.Errorf("could not write send times: %w", err)
	}
	return nil
}

// load reads the send times file, returning an empty map if the file
// does not yet exist.
func (ts *FileTimeStore) load() (map[string]time.Time, error) {
	data, err := os.ReadFile(ts.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]time.Time{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read send times: %w", err)
	}

	var times map[string]time.Time
	err = json.Unmarshal(data, &times)
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal send times: %w", err)
	}
	return times, nil
}
