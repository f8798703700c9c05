/*
DESCRIPTION
  drive.go provides resolution of Google Drive share links to file IDs
  and download of the linked files to a local working directory.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>

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

// Package drive fetches videos from Google Drive share links. Links
// are resolved to file IDs by URL shape; the files are streamed to a
// working directory via the Drive API.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Scope is the OAuth2 scope required for fetching.
const Scope = drive.DriveReadonlyScope

// MinSize is the minimum believable size for a fetched video. Drive
// serves an HTML interstitial rather than the file for quota-exceeded
// and permission problems; anything under this floor is junk.
const MinSize = 1 << 20 // 1 MB

var (
	// ErrNoFileID indicates the share URL matched none of the known shapes.
	ErrNoFileID = errors.New("no file ID in URL")

	// ErrTooSmall indicates the downloaded file was under MinSize and
	// has been discarded.
	ErrTooSmall = errors.New("downloaded file too small")
)

// Share URL shapes, tried in order.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`),
}

// FileID extracts the Drive file ID from a share URL, or returns
// ErrNoFileID if the URL matches no known shape.
func FileID(url string) (string, error) {
	for _, p := range idPatterns {
		m := p.FindStringSubmatch(url)
		if m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%s: %w", url, ErrNoFileID)
}

// Fetcher downloads Drive files to a working directory.
type Fetcher struct {
	svc *drive.Service
	dir string
}

// NewFetcher returns a Fetcher that downloads using the given
// authorised HTTP client, writing files into dir.
func NewFetcher(ctx context.Context, client *http.Client, dir string) (*Fetcher, error) {
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("could not create drive service: %w", err)
	}
	return &Fetcher{svc: svc, dir: dir}, nil
}

// Fetch resolves the share URL and downloads the file, returning the
// local path. The file is stored under its Drive name, or
// video_<index+1>.mp4 when the name is unusable. A result under
// MinSize is deleted and reported as ErrTooSmall.
func (f *Fetcher) Fetch(ctx context.Context, url string, index int) (string, error) {
	id, err := FileID(url)
	if err != nil {
		return "", err
	}

	meta, err := f.svc.Files.Get(id).Fields("name").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("could not get file metadata: %w", err)
	}

	name := filepath.Base(meta.Name)
	if name == "." || name == string(filepath.Separator) {
		name = fmt.Sprintf("video_%d.mp4", index+1)
	}
	path := filepath.Join(f.dir, name)

	resp, err := f.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("could not download file %s: %w", id, err)
	}
	defer resp.Body.Close()

	size, err := writeFile(path, resp.Body)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("could not write %s: %w", path, err)
	}

	if size < MinSize {
		os.Remove(path)
		return "", fmt.Errorf("%s is %d bytes: %w", name, size, ErrTooSmall)
	}
	return path, nil
}

// writeFile streams r to a new file at path, returning the number of
// bytes written.
func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return n, err
	}
	return n, f.Close()
}
