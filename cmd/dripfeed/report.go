/*
DESCRIPTION
  report.go renders the per-run session log and the run summary, and
  sends the ops notification when one is configured.

AUTHORS
  Trek Hopton <trek@ausocean.org>

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

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ausocean/dripfeed/netinfo"
	"github.com/ausocean/dripfeed/notify"
)

// report logs the run summary and emails it when a notifier is
// configured. A run that attempted nothing (empty queue) is not
// reported; run already logged it.
func (r *runner) report(ctx context.Context, s *summary) {
	if s.attempted == 0 {
		return
	}
	logSummary(s)
	if r.notifier == nil {
		return
	}
	err := r.notifier.Send(ctx, notify.Report, sessionText(s))
	if err != nil {
		log.Printf("could not send report notification: %v", err)
	}
}

// logSummary logs the run outcome, with an origin note derived from
// the ISP: hosted CI runners name Microsoft, GitHub or Azure in
// their org.
func logSummary(s *summary) {
	log.Printf("uploaded %d of %d videos, %d lifetime, %d still queued", len(s.uploaded), s.attempted, s.lifetime, s.remaining)
	switch {
	case hostedOrg(s.info.Org):
		log.Printf("upload origin %s is a hosted runner", s.info.Org)
	case s.info.Org != netinfo.Unknown:
		log.Printf("uploaded via %s", s.info.Org)
	default:
		log.Printf("could not verify upload origin")
	}
}

// hostedOrg reports whether the org names a hosted CI provider.
func hostedOrg(org string) bool {
	for _, s := range []string{"Microsoft", "GitHub", "Azure"} {
		if strings.Contains(org, s) {
			return true
		}
	}
	return false
}

// writeSessionLog writes the session text to a timestamped file in
// dir and returns the file's path.
func writeSessionLog(dir string, s *summary) (string, error) {
	path := filepath.Join(dir, "ip_log_"+s.when.Format("20060102_150405")+".txt")
	err := os.WriteFile(path, []byte(sessionText(s)), 0644)
	if err != nil {
		return "", fmt.Errorf("could not write session log: %w", err)
	}
	return path, nil
}

// sessionText renders the plain-text session record written to the
// session log and emailed to ops.
func sessionText(s *summary) string {
	div := strings.Repeat("=", 70)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", div)
	fmt.Fprintf(&b, "YouTube Upload Session - %s\n", s.when.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "%s\n\n", div)
	fmt.Fprintf(&b, "IP Address: %s\n", s.info.IP)
	fmt.Fprintf(&b, "City: %s\n", s.info.City)
	fmt.Fprintf(&b, "Region: %s\n", s.info.Region)
	fmt.Fprintf(&b, "Country: %s\n", s.info.Country)
	fmt.Fprintf(&b, "ISP/Organization: %s\n\n", s.info.Org)
	fmt.Fprintf(&b, "Videos Uploaded: %d\n", len(s.uploaded))
	fmt.Fprintf(&b, "Total Lifetime: %d videos\n\n", s.lifetime)
	fmt.Fprintf(&b, "%s\n", div)
	fmt.Fprintf(&b, "Video Details:\n")
	fmt.Fprintf(&b, "%s\n", div)
	for i, v := range s.uploaded {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, v.Title)
		fmt.Fprintf(&b, "   URL: %s\n", v.URL)
		fmt.Fprintf(&b, "   Scheduled: %s\n", v.ScheduledTime)
	}
	return b.String()
}
