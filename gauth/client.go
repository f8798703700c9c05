/*
DESCRIPTION
  client.go composes client secrets, a stored token and a refreshing
  token source into an authenticated HTTP client for use with Google
  APIs.

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

package gauth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Client returns an HTTP client authorised for the given scopes.
// The OAuth2 client secrets JSON is read from secretsURI and the stored
// token from tokenURI; both may be plain file paths or Google Storage
// bucket objects (gs://<bucket>/<object>). Refreshed tokens are saved
// back to tokenURI, so the stored artifact stays usable indefinitely
// while its refresh token remains valid.
func Client(ctx context.Context, secretsURI, tokenURI string, scopes ...string) (*http.Client, error) {
	secrets, err := readLocation(ctx, secretsURI)
	if err != nil {
		return nil, fmt.Errorf("could not read client secrets: %w", err)
	}

	cfg, err := google.ConfigFromJSON(secrets, scopes...)
	if err != nil {
		return nil, fmt.Errorf("could not parse client secrets: %w", err)
	}

	tok, err := LoadToken(ctx, tokenURI)
	if err != nil {
		return nil, fmt.Errorf("could not load token: %w", err)
	}

	ts := NewSmartTokenSource(ctx, cfg, tok, func(t *oauth2.Token) error {
		return SaveToken(ctx, tokenURI, t)
	})
	return oauth2.NewClient(ctx, ts), nil
}
