package providers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ipshield/reputation-engine/internal/config"
)

// IP2Location wraps IP2Location.io's /v2 lookup. The key travels as a query
// parameter.
var IP2Location = &Descriptor{
	Name:     "ip2location",
	NeedsKey: true,
	Enabled: func(cfg *config.Config) bool {
		return len(config.SplitKeys(cfg.IP2LocationKey)) > 0
	},
	Keys: func(cfg *config.Config) []string {
		return config.SplitKeys(cfg.IP2LocationKey)
	},
	BuildURL: func(req Request) string {
		return fmt.Sprintf("https://api.ip2location.io/v2/?key=%s&ip=%s", req.Key, req.IP)
	},
	CheckError: func(p Payload) bool {
		return getNested(p, "error", "error_message") != ""
	},
	ErrorMessage: func(p Payload) string {
		return getNested(p, "error", "error_message")
	},
	Transform: func(p Payload) map[string]any {
		out := map[string]any{}
		if cc := getString(p, "country_code"); cc != "" {
			out["ip2location_country_code"] = strings.ToUpper(cc)
		}
		if asnStr := getString(p, "asn"); asnStr != "" {
			if v, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(asnStr), "AS")); err == nil {
				out["ip2location_asn"] = v
			}
		}
		if usage := getString(p, "usage_type"); usage != "" {
			out["ip2location_usage"] = usage
		}
		if isp := getString(p, "isp"); isp != "" {
			out["isp"] = isp
		}
		if domain := getString(p, "domain"); domain != "" {
			out["organization"] = domain
		}
		if city := getString(p, "city_name"); city != "" {
			out["city"] = city
		}
		if region := getString(p, "region_name"); region != "" {
			out["region"] = region
		}
		if tz := getString(p, "time_zone"); tz != "" {
			out["timezone"] = tz
		}
		if lat, ok := getFloat(p, "latitude"); ok {
			out["latitude"] = lat
		}
		if lon, ok := getFloat(p, "longitude"); ok {
			out["longitude"] = lon
		}
		if proxy, ok := getNestedBool(p, "proxy", "is_vpn"); ok {
			out["ip2location_is_vpn"] = proxy
		}
		if tor, ok := getNestedBool(p, "proxy", "is_tor"); ok {
			out["ip2location_is_tor"] = tor
		}
		return out
	},
}
