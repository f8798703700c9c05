/*
DESCRIPTION
  upload.go provides functionality for uploading videos to YouTube
  with resumable chunked media and a scheduled future publish time.

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

package youtube

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

// Upload defaults. Videos go up private with no description and no
// tags; a publish time set with WithPublishAt is what eventually makes
// them public.
const (
	// People & Blogs category ID.
	peopleAndBlogsCategoryID = "22"

	defaultCategory = peopleAndBlogsCategoryID
	defaultPrivacy  = "private"

	// Media is streamed in 50 MB chunks with resumable semantics.
	chunkSize = 50 * 1024 * 1024
)

// publishTimeFormat is the RFC3339 UTC form with millisecond precision
// that the API requires for scheduled publish times.
const publishTimeFormat = "2006-01-02T15:04:05.000Z"

// videoUpload carries the video metadata being built by options, plus
// upload mechanics that are not part of the metadata.
type videoUpload struct {
	*youtube.Video
	progress func(percent int)
}

// VideoUploadOption is a functional option type for configuring YouTube video uploads.
type VideoUploadOption func(*videoUpload) error

// WithTitle sets the title of the video being uploaded.
// It returns an error if the title is empty.
func WithTitle(title string) VideoUploadOption {
	return func(v *videoUpload) error {
		if title == "" {
			return fmt.Errorf("title cannot be empty")
		}
		v.Snippet.Title = title
		return nil
	}
}

// WithDescription sets the description of the video being uploaded.
// It returns an error if the description is empty.
func WithDescription(description string) VideoUploadOption {
	return func(v *videoUpload) error {
		if description == "" {
			return fmt.Errorf("description cannot be empty")
		}
		v.Snippet.Description = description
		return nil
	}
}

// WithCategory sets the category of the video being uploaded.
// It accepts either a category ID or a category name (both as strings) from the following:
//
// 1 - Film & Animation
// 2 - Autos & Vehicles
// 10 - Music
// 15 - Pets & Animals
// 17 - Sports
// 18 - Short Movies
// 19 - Travel & Events
// 20 - Gaming
// 21 - Videoblogging
// 22 - People & Blogs
// 23 - Comedy
// 24 - Entertainment
// 25 - News & Politics
// 26 - Howto & Style
// 27 - Education
// 28 - Science & Technology
// 29 - Nonprofits & Activism
// 30 - Movies
// 31 - Anime/Animation
// 32 - Action/Adventure
// 33 - Classics
// 34 - Comedy
// 35 - Documentary
// 36 - Drama
// 37 - Family
// 38 - Foreign
// 39 - Horror
// 40 - Sci-Fi/Fantasy
// 41 - Thriller
// 42 - Shorts
// 43 - Shows
// 44 - Trailers
//
// If a name is provided, it will be matched against a predefined list of categories
// and the corresponding ID will be used.
// It returns an error if the category ID/name is not found.
func WithCategory(categoryID string) VideoUploadOption {
	return func(v *videoUpload) error {
		v.Snippet.CategoryId = sanitiseCategory(categoryID)
		if v.Snippet.CategoryId == "" {
			return fmt.Errorf("invalid category ID or name: %s", categoryID)
		}
		return nil
	}
}

// WithPrivacy sets the privacy status of the video being uploaded.
// It accepts "public", "unlisted", or "private" as valid privacy statuses.
// It returns an error if the privacy status is empty or invalid.
func WithPrivacy(privacy string) VideoUploadOption {
	return func(v *videoUpload) error {
		if !validPrivacy(privacy) {
			return fmt.Errorf("invalid privacy status: %s", privacy)
		}
		v.Status.PrivacyStatus = privacy
		return nil
	}
}

// WithTags sets the tags for the video being uploaded.
// It returns an error if the tags slice is empty.
func WithTags(tags []string) VideoUploadOption {
	return func(v *videoUpload) error {
		if len(tags) == 0 {
			return fmt.Errorf("tags cannot be empty")
		}
		v.Snippet.Tags = tags
		return nil
	}
}

// WithPublishAt schedules the video to go public at the given time.
// Scheduling requires the video to be private until then, so the
// privacy status is forced to private. The time is rendered in the
// RFC3339 UTC millisecond form the API requires.
func WithPublishAt(t time.Time) VideoUploadOption {
	return func(v *videoUpload) error {
		if t.IsZero() {
			return fmt.Errorf("publish time cannot be zero")
		}
		v.Status.PrivacyStatus = "private"
		v.Status.PublishAt = t.UTC().Format(publishTimeFormat)
		return nil
	}
}

// WithMadeForKids declares whether the video is made for kids. The
// field is force-sent so that an explicit false reaches the API rather
// than being dropped as a zero value.
func WithMadeForKids(madeForKids bool) VideoUploadOption {
	return func(v *videoUpload) error {
		v.Status.SelfDeclaredMadeForKids = madeForKids
		forceSend(v.Status, "SelfDeclaredMadeForKids")
		return nil
	}
}

// WithProgress sets a callback reporting upload progress as a
// percentage of bytes sent.
func WithProgress(fn func(percent int)) VideoUploadOption {
	return func(v *videoUpload) error {
		if fn == nil {
			return fmt.Errorf("progress callback cannot be nil")
		}
		v.progress = fn
		return nil
	}
}

// Upload uploads the file at path using the provided options, and
// returns the inserted video. Defaults are applied for anything not
// specified in options, as follows:
// - Title: the file name without its extension
// - Description: empty
// - Category: "People & Blogs" (ID: 22)
// - Privacy: "private"
// - Tags: none
// - Made for kids: false (force-sent)
// Media is streamed in 50 MB chunks with resumable semantics; progress
// is reported through the WithProgress callback if one was given.
func (s *Service) Upload(ctx context.Context, path string, opts ...VideoUploadOption) (*youtube.Video, error) {
	up, err := newVideoUpload(path, opts...)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open media file: %w", err)
	}
	defer f.Close()

	call := youtube.NewVideosService(s.svc).Insert([]string{"snippet", "status"}, up.Video)
	if up.progress != nil {
		call.ProgressUpdater(func(current, total int64) {
			if total > 0 {
				up.progress(int(current * 100 / total))
			}
		})
	}

	vid, err := call.Media(f, googleapi.ChunkSize(chunkSize)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to insert video: %w", err)
	}
	return vid, nil
}

// newVideoUpload builds the video metadata for the file at path,
// applying defaults and then the given options.
func newVideoUpload(path string, opts ...VideoUploadOption) (*videoUpload, error) {
	up := &videoUpload{
		Video: &youtube.Video{
			Snippet: &youtube.VideoSnippet{
				Title:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
				CategoryId: defaultCategory,
			},
			Status: &youtube.VideoStatus{
				PrivacyStatus:           defaultPrivacy,
				SelfDeclaredMadeForKids: false,
				ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
			},
		},
	}

	for _, opt := range opts {
		if err := opt(up); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return up, nil
}

// sanitiseCategory checks if the given category ID or Name is valid,
// and returns its ID if valid.
func sanitiseCategory(cat string) string {
	categories := map[string]string{
		"1":  "Film & Animation",
		"2":  "Autos & Vehicles",
		"10": "Music",
		"15": "Pets & Animals",
		"17": "Sports",
		"18": "Short Movies",
		"19": "Travel & Events",
		"20": "Gaming",
		"21": "Videoblogging",
		"22": "People & Blogs",
		"23": "Comedy",
		"24": "Entertainment",
		"25": "News & Politics",
		"26": "Howto & Style",
		"27": "Education",
		"28": "Science & Technology",
		"29": "Nonprofits & Activism",
		"30": "Movies",
		"31": "Anime/Animation",
		"32": "Action/Adventure",
		"33": "Classics",
		"34": "Comedy",
		"35": "Documentary",
		"36": "Drama",
		"37": "Family",
		"38": "Foreign",
		"39": "Horror",
		"40": "Sci-Fi/Fantasy",
		"41": "Thriller",
		"42": "Shorts",
		"43": "Shows",
		"44": "Trailers",
	}
	for id, name := range categories {
		if id == cat || name == cat {
			return id
		}
	}
	return ""
}

func validPrivacy(privacy string) bool {
	validStatuses := map[string]bool{
		"public":   true,
		"unlisted": true,
		"private":  true,
	}
	return validStatuses[privacy]
}

// forceSend marks a field of the video status to be sent even when it
// holds its zero value.
func forceSend(status *youtube.VideoStatus, field string) {
	for _, f := range status.ForceSendFields {
		if f == field {
			return
		}
	}
	status.ForceSendFields = append(status.ForceSendFields, field)
}
