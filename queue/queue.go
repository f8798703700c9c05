/*
DESCRIPTION
  queue.go provides reading and pruning of the flat-file upload queue.
  The queue is a UTF-8 text file holding one Google Drive share link
  per line. Lines that are blank or whose first non-space character is
  '#' are comments; they are never treated as entries and survive
  pruning verbatim.

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

// Package queue reads and prunes the flat-file queue of pending
// upload links. Entries are processed first-in first-out; uniqueness
// is not enforced.
package queue

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrShortQueue indicates a prune was requested for more links than
// the queue holds. The queue file is left untouched.
var ErrShortQueue = errors.New("fewer links in queue than prune count")

// Read returns the queued links in file order, skipping blank and
// comment lines. A missing queue file is an error; the operator must
// create it before the uploader can run.
func Read(path string) ([]string, error) {
	links, _, err := split(path)
	if err != nil {
		return nil, err
	}
	return links, nil
}

// Count returns the number of links remaining in the queue.
func Count(path string) (int, error) {
	links, _, err := split(path)
	if err != nil {
		return 0, err
	}
	return len(links), nil
}

// Prune removes the first n links from the queue file and rewrites it
// with all comment and blank lines first, followed by the remaining
// links in their original order. It returns the number of links left.
// If the queue holds fewer than n links the file is left untouched and
// ErrShortQueue is returned.
func Prune(path string, n int) (int, error) {
	links, other, err := split(path)
	if err != nil {
		return 0, err
	}

	if len(links) < n {
		return len(links), fmt.Errorf("%d links, want %d: %w", len(links), n, ErrShortQueue)
	}

	remaining := links[n:]
	var b strings.Builder
	for _, line := range other {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, line := range remaining {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	err = os.WriteFile(path, []byte(b.String()), 0644)
	if err != nil {
		return len(remaining), fmt.Errorf("could not rewrite queue file: %w", err)
	}
	return len(remaining), nil
}

// split partitions the lines of the queue file into links and other
// lines (comments and blanks), each in file order. Link lines are
// trimmed of surrounding space; other lines are kept verbatim.
func split(path string) (links, other []string, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not read queue file: %w", err)
	}

	s := strings.TrimSuffix(string(b), "\n")
	if s == "" {
		return nil, nil, nil
	}

	for _, line := range strings.Split(s, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "#") {
			other = append(other, line)
			continue
		}
		links = append(links, t)
	}
	return links, other, nil
}
