package providers

import (
	"fmt"
	"strings"

	"github.com/ipshield/reputation-engine/internal/config"
)

// IPQS wraps IPQualityScore's proxy/VPN detection endpoint. The key travels
// as a URL path segment, matching IPQS's documented call shape.
var IPQS = &Descriptor{
	Name:     "ipqs",
	NeedsKey: true,
	Enabled: func(cfg *config.Config) bool {
		return len(config.SplitKeys(cfg.IPQSKey)) > 0
	},
	Keys: func(cfg *config.Config) []string {
		return config.SplitKeys(cfg.IPQSKey)
	},
	BuildURL: func(req Request) string {
		return fmt.Sprintf("https://ipqualityscore.com/api/json/ip/%s/%s?strictness=1", req.Key, req.IP)
	},
	CheckError: func(p Payload) bool {
		success, ok := getBool(p, "success")
		return ok && !success
	},
	ErrorMessage: func(p Payload) string {
		if m := getString(p, "message"); m != "" {
			return m
		}
		return "ipqs lookup failed"
	},
	Transform: func(p Payload) map[string]any {
		out := map[string]any{}
		if ct := getString(p, "connection_type"); ct != "" {
			out["connection_type"] = ct
		}
		if score, ok := getFloat(p, "fraud_score"); ok {
			out["fraudScore"] = score
		}
		if v, ok := getBool(p, "vpn"); ok {
			out["ipqs_vpn"] = v
		}
		if v, ok := getBool(p, "proxy"); ok {
			out["ipqs_proxy"] = v
		}
		if v, ok := getBool(p, "tor"); ok {
			out["ipqs_tor"] = v
		}
		if isp := getString(p, "ISP"); isp != "" {
			out["isp"] = isp
		}
		if org := getString(p, "organization"); org != "" {
			out["organization"] = org
		}
		if cc := getString(p, "country_code"); cc != "" {
			out["country_code"] = strings.ToUpper(cc)
		}
		if tz := getString(p, "timezone"); tz != "" {
			out["timezone"] = tz
		}
		if lat, ok := getFloat(p, "latitude"); ok {
			out["latitude"] = lat
		}
		if lon, ok := getFloat(p, "longitude"); ok {
			out["longitude"] = lon
		}
		if region := getString(p, "region"); region != "" {
			out["region"] = region
		}
		if city := getString(p, "city"); city != "" {
			out["city"] = city
		}
		return out
	},
}
