package providers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ipshield/reputation-engine/internal/config"
)

// IPInfo wraps ipinfo.io's per-IP lookup (https://ipinfo.io/<ip>). The token travels as a query
// parameter, matching ipinfo's own documented auth style.
var IPInfo = &Descriptor{
	Name:     "ipinfo",
	NeedsKey: true,
	Enabled: func(cfg *config.Config) bool {
		return len(config.SplitKeys(cfg.IPInfoToken)) > 0
	},
	Keys: func(cfg *config.Config) []string {
		return config.SplitKeys(cfg.IPInfoToken)
	},
	BuildURL: func(req Request) string {
		return fmt.Sprintf("https://ipinfo.io/%s?token=%s", req.IP, req.Key)
	},
	CheckError: func(p Payload) bool {
		return getString(p, "error") != "" || getString(p, "bogon") == "true"
	},
	ErrorMessage: func(p Payload) string {
		if e := getNested(p, "error", "message"); e != "" {
			return e
		}
		return getString(p, "error")
	},
	Transform: func(p Payload) map[string]any {
		out := map[string]any{}
		if cc := getString(p, "country"); cc != "" {
			out["ipinfo_country"] = strings.ToUpper(cc)
		}
		if city := getString(p, "city"); city != "" {
			out["city"] = city
		}
		if region := getString(p, "region"); region != "" {
			out["region"] = region
		}
		if tz := getString(p, "timezone"); tz != "" {
			out["timezone"] = tz
		}
		if org := getString(p, "org"); org != "" {
			out["isp"] = stripASNPrefix(org)
			out["organization"] = stripASNPrefix(org)
		}
		if loc := getString(p, "loc"); loc != "" {
			parts := strings.SplitN(loc, ",", 2)
			if len(parts) == 2 {
				if lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err == nil {
					out["latitude"] = lat
				}
				if lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil {
					out["longitude"] = lon
				}
			}
		}
		if hosting, ok := getNestedBool(p, "privacy", "hosting"); ok {
			out["ipinfo_privacy_hosting"] = hosting
		}
		if vpn, ok := getNestedBool(p, "privacy", "vpn"); ok {
			out["ipinfo_privacy_vpn"] = vpn
		}
		if proxy, ok := getNestedBool(p, "privacy", "proxy"); ok {
			out["ipinfo_privacy_proxy"] = proxy
		}
		if tor, ok := getNestedBool(p, "privacy", "tor"); ok {
			out["ipinfo_privacy_tor"] = tor
		}
		return out
	},
}

// stripASNPrefix removes ipinfo's "AS15169 Google LLC" org prefix, leaving
// just the organization name.
func stripASNPrefix(org string) string {
	if !strings.HasPrefix(org, "AS") {
		return org
	}
	parts := strings.SplitN(org, " ", 2)
	if len(parts) != 2 {
		return org
	}
	if _, err := strconv.Atoi(parts[0][2:]); err != nil {
		return org
	}
	return parts[1]
}
