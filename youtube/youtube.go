/*
DESCRIPTION
  youtube.go provides the YouTube Data API service wrapper and lookup
  of the authenticated user's own channel.

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

// Package youtube uploads videos to YouTube using the Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Scope is the OAuth2 scope required for uploading and channel lookup.
const Scope = youtube.YoutubeScope

// ErrNoChannel indicates the authenticated user has no channel; there
// is nowhere to upload to.
var ErrNoChannel = errors.New("no channel for authenticated user")

// Service wraps the parts of the YouTube Data API that dripfeed uses.
type Service struct {
	svc *youtube.Service
}

// NewService returns a Service using the given authorised HTTP client.
func NewService(ctx context.Context, client *http.Client) (*Service, error) {
	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("could not create youtube service: %w", err)
	}
	return &Service{svc: svc}, nil
}

// Channel identifies a YouTube channel.
type Channel struct {
	ID    string
	Title string
}

// OwnChannel returns the authenticated user's own channel, confirming
// that the stored token really belongs to the expected account.
func (s *Service) OwnChannel(ctx context.Context) (*Channel, error) {
	resp, err := s.svc.Channels.List([]string{"snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("could not list own channels: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, ErrNoChannel
	}
	item := resp.Items[0]
	return &Channel{ID: item.Id, Title: item.Snippet.Title}, nil
}

// WatchURL returns the public URL for the video with the given ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
