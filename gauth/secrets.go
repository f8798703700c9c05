/*
DESCRIPTION
  secrets.go provides lookup of project secrets, such as mail API keys,
  from either a local file or a Google Storage bucket object.

AUTHORS
  Alan Noble <alan@ausocean.org>

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

package gauth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ausocean/utils/filemap"
)

// The URI scheme that represents a Google Storage bucket object.
const gsbScheme = "gs://"

// GetSecrets looks up secrets from either a file or Google Storage
// bucket specified by the <PROJECTID>_SECRETS environment variable.
// Each line is a colon-separated key and value.
// The keys argument specifies required keys.
func GetSecrets(ctx context.Context, projectID string, keys []string) (map[string]string, error) {
	ev := strings.ToUpper(projectID) + "_SECRETS"
	loc := os.Getenv(ev)
	if loc == "" {
		return nil, errors.New(ev + " environment variable not defined")
	}

	bytes, err := readLocation(ctx, loc)
	if err != nil {
		return nil, err
	}

	// Strip carriage returns, if any.
	s := strings.ReplaceAll(string(bytes), "\r", "")

	// There is one colon-separated secret per line.
	m := filemap.Split(s, "\n", ":")
	for _, k := range keys {
		if m[k] == "" {
			return m, fmt.Errorf("missing key %s", k)
		}
	}
	return m, nil
}

// GetSecret gets a single secret from either a file or Google Storage
// bucket specified by the <PROJECTID>_SECRETS environment variable.
func GetSecret(ctx context.Context, projectID, key string) (string, error) {
	secrets, err := GetSecrets(ctx, projectID, []string{key})
	if err != nil {
		return "", err
	}
	return secrets[key], nil
}

// readLocation reads the contents of loc, which is either a plain
// file path or a Google Storage bucket object of the form
// gs://<bucket_name>/<object_name>.
func readLocation(ctx context.Context, loc string) ([]byte, error) {
	if strings.HasPrefix(loc, gsbScheme) {
		return readObject(ctx, loc)
	}
	return os.ReadFile(loc)
}
