/*
DESCRIPTION
  token.go provides storage of OAuth2 tokens, either in the filesystem
  or in a Google Storage bucket object, for production and local
  execution respectively. Tokens are stored as JSON and are expected to
  carry a long-lived refresh token so that an expired access token can
  be renewed without operator interaction.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>
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

package gauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
)

// ErrNoToken indicates that no token artifact exists at the given
// location. The operator must obtain one out of band before the
// uploader can run.
var ErrNoToken = errors.New("no stored token")

// LoadToken loads an oauth2.Token from uri, which is either a plain
// file path or a Google Storage bucket object (gs://<bucket>/<object>).
// A missing artifact returns an error wrapping ErrNoToken.
func LoadToken(ctx context.Context, uri string) (*oauth2.Token, error) {
	var r io.ReadCloser
	if strings.HasPrefix(uri, gsbScheme) {
		obj, err := object(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("could not get token object: %w", err)
		}
		r, err = obj.NewReader(ctx)
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%s: %w", uri, ErrNoToken)
		}
		if err != nil {
			return nil, fmt.Errorf("could not read token object: %w", err)
		}
	} else {
		f, err := os.Open(uri)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", uri, ErrNoToken)
		}
		if err != nil {
			return nil, fmt.Errorf("could not open token file: %w", err)
		}
		r = f
	}
	defer r.Close()

	tok := new(oauth2.Token)
	err := json.NewDecoder(r).Decode(tok)
	if err != nil {
		return nil, fmt.Errorf("could not decode token from %s: %w", uri, err)
	}
	return tok, nil
}

// SaveToken saves the given oauth2.Token to uri, overwriting any
// previous token stored there. Files are written with mode 0600.
func SaveToken(ctx context.Context, uri string, tok *oauth2.Token) error {
	if strings.HasPrefix(uri, gsbScheme) {
		obj, err := object(ctx, uri)
		if err != nil {
			return fmt.Errorf("could not get token object: %w", err)
		}
		w := obj.NewWriter(ctx)
		err = json.NewEncoder(w).Encode(tok)
		if err != nil {
			return fmt.Errorf("could not encode token to object: %w", err)
		}
		err = w.Close()
		if err != nil {
			return fmt.Errorf("could not close written object: %w", err)
		}
		return nil
	}

	f, err := os.OpenFile(uri, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("could not open token file for writing: %w", err)
	}
	defer f.Close()
	err = json.NewEncoder(f).Encode(tok)
	if err != nil {
		return fmt.Errorf("could not encode token to file: %w", err)
	}
	return nil
}

// object returns a handle for the Google Storage bucket object at uri,
// which must take the form gs://<bucket_name>/<object_name>.
func object(ctx context.Context, uri string) (*storage.ObjectHandle, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("could not parse uri: %w", err)
	}
	if u.Scheme != "gs" {
		return nil, fmt.Errorf("uri does not have gs scheme: %s", uri)
	}
	clt, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not create storage client: %w", err)
	}
	return clt.Bucket(u.Host).Object(strings.TrimPrefix(u.Path, "/")), nil
}

// readObject returns the bytes of the Google Storage bucket object at uri.
func readObject(ctx context.Context, uri string) ([]byte, error) {
	obj, err := object(ctx, uri)
	if err != nil {
		return nil, err
	}
	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not create object reader: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}
