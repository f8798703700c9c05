/*
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
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token.json")

	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	err := SaveToken(ctx, path, tok)
	if err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	got, err := LoadToken(ctx, path)
	if err != nil {
		t.Fatalf("LoadToken failed: %v", err)
	}
	if got.AccessToken != tok.AccessToken || got.RefreshToken != tok.RefreshToken {
		t.Errorf("loaded token does not match saved token: got %v, want %v", got, tok)
	}
	if !got.Expiry.Equal(tok.Expiry) {
		t.Errorf("expected expiry %v, got %v", tok.Expiry, got.Expiry)
	}
}

func TestLoadTokenMissing(t *testing.T) {
	_, err := LoadToken(context.Background(), filepath.Join(t.TempDir(), "nonexistent.json"))
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("expected error wrapping ErrNoToken, got %v", err)
	}
}

// stubTokenSource returns a fixed sequence of tokens.
type stubTokenSource struct {
	toks []*oauth2.Token
	i    int
}

func (s *stubTokenSource) Token() (*oauth2.Token, error) {
	tok := s.toks[s.i]
	if s.i < len(s.toks)-1 {
		s.i++
	}
	return tok, nil
}

func TestSmartTokenSource(t *testing.T) {
	first := &oauth2.Token{AccessToken: "first"}
	second := &oauth2.Token{AccessToken: "second"}

	var persisted []string
	ts := &SmartTokenSource{
		src: &stubTokenSource{toks: []*oauth2.Token{first, second, second}},
		persist: func(tok *oauth2.Token) error {
			persisted = append(persisted, tok.AccessToken)
			return nil
		},
		last: first,
	}

	// Same access token as last known; no persistence.
	_, err := ts.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if len(persisted) != 0 {
		t.Errorf("expected no persistence for unchanged token, got %v", persisted)
	}

	// Access token changed; persist once.
	tok, err := ts.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok.AccessToken != "second" {
		t.Errorf("expected access token second, got %s", tok.AccessToken)
	}
	if len(persisted) != 1 || persisted[0] != "second" {
		t.Errorf("expected one persistence of second, got %v", persisted)
	}

	// Unchanged again; still only one persistence.
	_, err = ts.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if len(persisted) != 1 {
		t.Errorf("expected no further persistence, got %v", persisted)
	}
}
