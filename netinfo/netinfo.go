/*
DESCRIPTION
  netinfo.go provides best-effort discovery of the public IP address
  and geolocation of the machine we are uploading from. The result is
  purely informational, recorded alongside each upload session so the
  operator can confirm where uploads originate (for example, a hosted
  CI runner rather than a home connection).

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

// Package netinfo looks up the public IP address and geolocation of
// the current host using public echo endpoints. Lookups never fail:
// anything that goes wrong leaves the affected fields as "Unknown".
package netinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Unknown is the placeholder for any field we could not determine.
const Unknown = "Unknown"

// Request timeout for each endpoint.
const timeout = 10 * time.Second

// Info is a snapshot of the network an upload session ran on.
type Info struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Org     string `json:"org"`
}

// Resolver performs the lookups. The zero value is not usable; use New.
type Resolver struct {
	Client *http.Client
	IPURLs []string // IP echo endpoints, tried in order.
	GeoURL string   // Geolocation endpoint with a %s verb for the IP.
}

// New returns a Resolver using the default public endpoints.
func New() *Resolver {
	return &Resolver{
		Client: &http.Client{Timeout: timeout},
		IPURLs: []string{
			"https://api.ipify.org?format=json",
			"https://ifconfig.me/all.json",
		},
		GeoURL: "http://ip-api.com/json/%s",
	}
}

// Lookup returns the network snapshot for the current host. It tries
// each IP echo endpoint in order until one yields an address, then
// geolocates that address. Failures are logged and swallowed; the
// corresponding fields remain Unknown.
func (r *Resolver) Lookup(ctx context.Context) Info {
	info := Info{IP: Unknown, City: Unknown, Region: Unknown, Country: Unknown, Org: Unknown}

	for _, u := range r.IPURLs {
		// The echo endpoints disagree on the field name; ip_addr is
		// the fallback key.
		var body struct {
			IP     string `json:"ip"`
			IPAddr string `json:"ip_addr"`
		}
		err := r.get(ctx, u, &body)
		if err != nil {
			log.Printf("could not get IP from %s: %v", u, err)
			continue
		}
		switch {
		case body.IP != "":
			info.IP = body.IP
		case body.IPAddr != "":
			info.IP = body.IPAddr
		default:
			continue
		}
		break
	}

	if info.IP == Unknown {
		return info
	}

	var geo struct {
		Status     string `json:"status"`
		City       string `json:"city"`
		RegionName string `json:"regionName"`
		Country    string `json:"country"`
		ISP        string `json:"isp"`
	}
	err := r.get(ctx, fmt.Sprintf(r.GeoURL, info.IP), &geo)
	if err != nil {
		log.Printf("could not get location for %s: %v", info.IP, err)
		return info
	}
	if geo.Status != "success" {
		log.Printf("location lookup for %s returned status %q", info.IP, geo.Status)
		return info
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&info.City, geo.City)
	set(&info.Region, geo.RegionName)
	set(&info.Country, geo.Country)
	set(&info.Org, geo.ISP)
	return info
}

// get performs an HTTP GET of u and decodes the JSON response into v.
func (r *Resolver) get(ctx context.Context, u string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("error from HTTP GET: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status: %s", resp.Status)
	}
	err = json.NewDecoder(resp.Body).Decode(v)
	if err != nil {
		return fmt.Errorf("could not decode response body: %w", err)
	}
	return nil
}
