package providers

import (
	"fmt"
	"strings"

	"github.com/ipshield/reputation-engine/internal/config"
)

// CloudflareASN wraps Cloudflare Radar's ASN entity lookup. It is the only
// ASN-dependent (Wave 2) provider: it is queried by ASN rather than by IP,
// and only once Wave 1 has discovered one, per spec §4.5.
var CloudflareASN = &Descriptor{
	Name:         "cloudflare_asn",
	NeedsKey:     true,
	ASNDependent: true,
	Enabled: func(cfg *config.Config) bool {
		return len(config.SplitKeys(cfg.CloudflareAPIToken)) > 0
	},
	Keys: func(cfg *config.Config) []string {
		return config.SplitKeys(cfg.CloudflareAPIToken)
	},
	BuildURL: func(req Request) string {
		return fmt.Sprintf("https://api.cloudflare.com/client/v4/radar/entities/asns/%d", req.ASN)
	},
	Headers: func(req Request) map[string]string {
		return map[string]string{"Authorization": "Bearer " + req.Key}
	},
	CheckError: func(p Payload) bool {
		success, ok := getBool(p, "success")
		return ok && !success
	},
	ErrorMessage: func(p Payload) string {
		errs, ok := p["errors"].([]any)
		if !ok || len(errs) == 0 {
			return "cloudflare_asn lookup failed"
		}
		first, ok := errs[0].(map[string]any)
		if !ok {
			return "cloudflare_asn lookup failed"
		}
		return getString(first, "message")
	},
	Transform: func(p Payload) map[string]any {
		result, _ := p["result"].(map[string]any)
		if result == nil {
			return map[string]any{}
		}
		out := map[string]any{}
		if cc := getString(result, "country"); cc != "" {
			out["cf_asn_country"] = strings.ToUpper(cc)
		}
		if name := getString(result, "name"); name != "" {
			out["cf_asn_name"] = name
		}
		if org := getString(result, "orgName"); org != "" {
			out["cf_asn_org"] = org
		}
		return out
	},
}
