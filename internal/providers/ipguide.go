package providers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ipshield/reputation-engine/internal/config"
)

// IPGuide is the zero-key ASN registry baseline: no credential, always
// enabled, queried in Wave 1 for every IP. It supplies the registry-of-record
// country used by the native/broadcast judgment and is typically the
// cheapest, fastest-responding source, so it is listed first.
var IPGuide = &Descriptor{
	Name:     "ipguide",
	NeedsKey: false,
	Enabled: func(cfg *config.Config) bool {
		return true
	},
	BuildURL: func(req Request) string {
		return fmt.Sprintf("https://ipguide.io/%s", req.IP)
	},
	CheckError: func(p Payload) bool {
		return getString(p, "error") != ""
	},
	ErrorMessage: func(p Payload) string {
		return getString(p, "error")
	},
	Transform: func(p Payload) map[string]any {
		out := map[string]any{}
		if asnBlock, ok := p["network"].(map[string]any); ok {
			if autonomousSystem, ok := asnBlock["autonomous_system"].(map[string]any); ok {
				if n := getString(autonomousSystem, "number"); n != "" {
					n = strings.TrimPrefix(strings.ToUpper(n), "AS")
					if v, err := strconv.Atoi(n); err == nil {
						out["asn"] = v
					}
				}
				if org := getString(autonomousSystem, "organization"); org != "" {
					out["ipguide_asn_org"] = org
				}
			}
		}
		if loc, ok := p["location"].(map[string]any); ok {
			if cc := getString(loc, "country_code"); cc != "" {
				out["ipguide_asn_country"] = strings.ToUpper(cc)
			}
			if city := getString(loc, "city"); city != "" {
				out["ipguide_city"] = city
			}
		}
		return out
	},
}
