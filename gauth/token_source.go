/*
AUTHORS
  David Sutton <davidsutton@ausocean.org>

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
	"log"

	"golang.org/x/oauth2"
)

// SmartTokenSource implements the oauth2.TokenSource interface, with an
// additional callback invoked whenever the underlying token is
// refreshed. The callback is intended for persisting the renewed token
// back to wherever it was loaded from, so the long-lived refresh token
// keeps working across process restarts.
//
// TODO: Consider thread-safe implementation.
type SmartTokenSource struct {
	// Token source used to get a refreshed token.
	src oauth2.TokenSource

	// Callback invoked when the token is refreshed.
	persist func(*oauth2.Token) error

	// Most recent known token.
	last *oauth2.Token
}

// NewSmartTokenSource creates a SmartTokenSource from the passed oauth2
// config and token. The persist callback is called with the new token
// whenever a refresh occurs.
func NewSmartTokenSource(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token, persist func(*oauth2.Token) error) *SmartTokenSource {
	return &SmartTokenSource{
		src:     cfg.TokenSource(ctx, tok),
		persist: persist,
		last:    tok,
	}
}

// Token returns a token with a valid access token, invoking the persist
// callback if the token was refreshed. A persistence failure is logged
// rather than returned; the fresh token still serves this process, it
// just will not survive a restart.
func (s *SmartTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	// Check if the token was refreshed (or no previous access token was known).
	if s.last == nil || s.last.AccessToken != tok.AccessToken {
		s.last = tok
		if s.persist != nil {
			err := s.persist(s.last)
			if err != nil {
				log.Printf("could not persist refreshed token: %v", err)
			}
		}
	}

	return s.last, nil
}
