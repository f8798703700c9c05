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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ausocean/dripfeed/gauth"
)

const (
	projectID = "test"
	message   = "This is a test."
	recipient = "testing@ausocean.org"
)

// testStore implements a dummy time store for testing purposes.
type testStore struct {
	Attempted int
	Delivered int
}

// Sendable alternates between returning true and false.
func (ts *testStore) Sendable(ctx context.Context, key string) (bool, error) {
	ts.Attempted++
	if ts.Attempted%2 == 0 {
		return false, nil
	}
	return true, nil
}

// Sent just increments the sent counter.
func (ts *testStore) Sent(ctx context.Context, key string) error {
	ts.Delivered++
	return nil
}

// TestStore tests the time store functionality.
// For this test, we supply a test store without any secrets.
func TestStore(t *testing.T) {
	ctx := context.Background()

	n := Notifier{}
	ts := testStore{}
	err := n.Init(WithStore(&ts))
	if err != nil {
		t.Errorf("Init failed with error: %v", err)
	}

	// Even numbered attempts should not be delivered.
	tests1 := []struct {
		attempted int
		delivered int
	}{
		{
			attempted: 1,
			delivered: 1,
		},
		{
			attempted: 2,
			delivered: 1,
		},
		{
			attempted: 3,
			delivered: 2,
		},
	}

	for i, test := range tests1 {
		err = n.Send(ctx, Report, message)
		if err != nil {
			t.Errorf("Send #%d failed with error: %v", i, err)
		}
		if ts.Attempted != test.attempted {
			t.Errorf("Expected attempted to be %d, got %d", test.attempted, ts.Attempted)
		}
		if ts.Delivered != test.delivered {
			t.Errorf("Expected delivered to be %d, got %d", test.delivered, ts.Delivered)
		}
	}

	// Now try with filters.
	tests2 := []struct {
		filter    string
		attempted int
		delivered int
	}{
		{
			filter:    "test",
			attempted: 4,
			delivered: 2,
		},
		{
			filter:    "test",
			attempted: 5,
			delivered: 3,
		},
		{
			filter:    "Error:",
			attempted: 5,
			delivered: 3,
		},
	}
	for i, test := range tests2 {
		// Re-initialize with the filter.
		err = n.Init(WithFilter(test.filter), WithStore(&ts))
		if err != nil {
			t.Errorf("Init failed with error: %v", err)
		}
		err = n.Send(ctx, Report, message)
		if err != nil {
			t.Errorf("Send #%d failed with error: %v", i, err)
		}
		if ts.Attempted != test.attempted {
			t.Errorf("Expected attempted to be %d, got %d", test.attempted, ts.Attempted)
		}
		if ts.Delivered != test.delivered {
			t.Errorf("Expected delivered to be %d, got %d", test.delivered, ts.Delivered)
		}
	}
}

// TestFileTimeStore tests file-backed notification persistence.
func TestFileTimeStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notify.json")

	ts := NewFileTimeStore(path, time.Hour)

	// Nothing sent yet, so anything is sendable.
	sendable, err := ts.Sendable(ctx, "report.ops@ausocean.org")
	if err != nil {
		t.Errorf("Sendable failed with error: %v", err)
	}
	if !sendable {
		t.Error("Expected new key to be sendable")
	}

	err = ts.Sent(ctx, "report.ops@ausocean.org")
	if err != nil {
		t.Errorf("Sent failed with error: %v", err)
	}

	// An hour has not elapsed, so the same key is now throttled.
	sendable, err = ts.Sendable(ctx, "report.ops@ausocean.org")
	if err != nil {
		t.Errorf("Sendable failed with error: %v", err)
	}
	if sendable {
		t.Error("Expected sent key to be throttled")
	}

	// A different key is unaffected.
	sendable, err = ts.Sendable(ctx, "health.ops@ausocean.org")
	if err != nil {
		t.Errorf("Sendable failed with error: %v", err)
	}
	if !sendable {
		t.Error("Expected different key to be sendable")
	}

	// Send times persist across store instances.
	ts2 := NewFileTimeStore(path, time.Hour)
	sendable, err = ts2.Sendable(ctx, "report.ops@ausocean.org")
	if err != nil {
		t.Errorf("Sendable failed with error: %v", err)
	}
	if sendable {
		t.Error("Expected sent key to be throttled in new store instance")
	}

	// A zero period never throttles.
	ts3 := NewFileTimeStore(path, 0)
	sendable, err = ts3.Sendable(ctx, "report.ops@ausocean.org")
	if err != nil {
		t.Errorf("Sendable failed with error: %v", err)
	}
	if !sendable {
		t.Error("Expected zero period to always be sendable")
	}
}

// TestWithSecrets tests secrets validation during initialization.
func TestWithSecrets(t *testing.T) {
	tests := []struct {
		secrets map[string]string
		ok      bool
	}{
		{
			secrets: map[string]string{"mailjetPublicKey": "pub", "mailjetPrivateKey": "priv"},
			ok:      true,
		},
		{
			secrets: map[string]string{"mailjetPublicKey": "pub"},
			ok:      false,
		},
		{
			secrets: map[string]string{"mailjetPrivateKey": "priv"},
			ok:      false,
		},
		{
			secrets: map[string]string{},
			ok:      false,
		},
	}

	for i, test := range tests {
		n := Notifier{}
		err := n.Init(WithSecrets(test.secrets))
		if test.ok && err != nil {
			t.Errorf("Init failed for test no. %d with error: %v", i, err)
		}
		if !test.ok && err == nil {
			t.Errorf("Init did not fail for test no. %d", i)
		}
	}
}

// TestSubject tests subject line generation.
func TestSubject(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{kind: Report, want: "Report notification"},
		{kind: Health, want: "Health notification"},
		{kind: Kind(""), want: "notification"},
	}

	for i, test := range tests {
		got := subject(test.kind)
		if got != test.want {
			t.Errorf("unexpected subject for test no. %d want: %s got: %s", i, test.want, got)
		}
	}
}

// TestGetOpsEnvVars tests defaulting and parsing of the ops env vars.
func TestGetOpsEnvVars(t *testing.T) {
	t.Setenv("OPS_EMAIL", "")
	t.Setenv("OPS_PERIOD", "")
	email, period := GetOpsEnvVars()
	if email != defaultRecipient {
		t.Errorf("Expected default email %s, got %s", defaultRecipient, email)
	}
	if period != 60*time.Minute {
		t.Errorf("Expected default period 60m, got %v", period)
	}

	t.Setenv("OPS_EMAIL", "someone@ausocean.org")
	t.Setenv("OPS_PERIOD", "15")
	email, period = GetOpsEnvVars()
	if email != "someone@ausocean.org" {
		t.Errorf("Expected email someone@ausocean.org, got %s", email)
	}
	if period != 15*time.Minute {
		t.Errorf("Expected period 15m, got %v", period)
	}

	// A malformed period falls back to the default.
	t.Setenv("OPS_PERIOD", "often")
	_, period = GetOpsEnvVars()
	if period != 60*time.Minute {
		t.Errorf("Expected default period 60m, got %v", period)
	}
}

// TestSend tests sending an actual email.
// For this test, we supply secrets and a test recipient.
// It is recommended to run this only locally, as it sends actual emails.
func TestSend(t *testing.T) {
	if os.Getenv("TEST_SECRETS") == "" {
		t.Skip("TEST_SECRETS required for TestSend")
	}

	ctx := context.Background()
	n := Notifier{}

	secrets, err := gauth.GetSecrets(ctx, projectID, nil)
	if err != nil {
		t.Errorf("Could not get secrets for %s: %v", projectID, err)
	}

	err = n.Init(WithSecrets(secrets), WithRecipient(recipient))
	if err != nil {
		t.Errorf("Init failed with error: %v", err)
	}

	err = n.Send(ctx, Report, message)
	if err != nil {
		t.Errorf("Send failed with error: %v", err)
	}
}
