package providers

import (
	"fmt"
	"strings"

	"github.com/ipshield/reputation-engine/internal/config"
)

// AbuseIPDB wraps the /check endpoint. The key travels as the documented
// "Key" header rather than a query parameter.
var AbuseIPDB = &Descriptor{
	Name:     "abuseipdb",
	NeedsKey: true,
	Enabled: func(cfg *config.Config) bool {
		return len(config.SplitKeys(cfg.AbuseIPDBKey)) > 0
	},
	Keys: func(cfg *config.Config) []string {
		return config.SplitKeys(cfg.AbuseIPDBKey)
	},
	BuildURL: func(req Request) string {
		return fmt.Sprintf("https://api.abuseipdb.com/api/v2/check?ipAddress=%s&maxAgeInDays=90", req.IP)
	},
	Headers: func(req Request) map[string]string {
		return map[string]string{"Key": req.Key, "Accept": "application/json"}
	},
	CheckError: func(p Payload) bool {
		return getString(p, "errors") != "" || p["data"] == nil
	},
	ErrorMessage: func(p Payload) string {
		if e := getString(p, "errors"); e != "" {
			return e
		}
		return "abuseipdb lookup failed"
	},
	Transform: func(p Payload) map[string]any {
		data, _ := p["data"].(map[string]any)
		if data == nil {
			return map[string]any{}
		}
		out := map[string]any{}
		if score, ok := getFloat(data, "abuseConfidenceScore"); ok {
			out["abuseScore"] = score
		}
		if reports, ok := getFloat(data, "totalReports"); ok {
			out["totalReports"] = reports
		}
		if last := getString(data, "lastReportedAt"); last != "" {
			out["lastReportedAt"] = last
		}
		if usage := getString(data, "usageType"); usage != "" {
			out["usageType"] = usage
		}
		if isp := getString(data, "isp"); isp != "" {
			out["isp"] = isp
		}
		if domain := getString(data, "domain"); domain != "" {
			out["organization"] = domain
		}
		if cc := getString(data, "countryCode"); cc != "" {
			out["country_code"] = strings.ToUpper(cc)
		}
		if tor, ok := getBool(data, "isTor"); ok {
			out["abuseipdb_tor"] = tor
		}
		if isWhitelisted, ok := getBool(data, "isWhitelisted"); ok {
			out["abuseipdb_whitelisted"] = isWhitelisted
		}
		return out
	},
}
