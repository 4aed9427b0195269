package derive

import (
	"fmt"
	"strings"

	"github.com/ipshield/reputation-engine/internal/model"
)

// typeCandidate is one of the four fixed IP-type-voting sources, pinned by
// spec §9 OQ2 to IPQS -> AbuseIPDB -> IP2Location -> ipinfo-hosting-flag.
type typeCandidate struct {
	source string
	key    string
	// hostingFlag marks the ipinfo candidate, whose raw signal is a
	// boolean rather than a free-form string.
	hostingFlag bool
}

var typeCandidates = []typeCandidate{
	{source: "ipqs", key: "connection_type"},
	{source: "abuseipdb", key: "usageType"},
	{source: "ip2location", key: "ip2location_usage"},
	{source: "ipinfo", key: "ipinfo_privacy_hosting", hostingFlag: true},
}

// VoteIPType tallies normalized categories over the fixed candidate order
// and returns the winner plus the full per-source detail list, per §4.6.
func VoteIPType(merged model.MergedRecord) model.IPType {
	var details []model.TypeSourceDetail
	tally := map[Category]int{}
	firstSeen := map[Category]int{}

	for i, c := range typeCandidates {
		var raw string
		var normalized Category
		if c.hostingFlag {
			if hosting, ok := merged.Bool(c.key); ok && hosting {
				raw = "hosting"
				normalized = CategoryDatacenter
			}
		} else {
			if s, ok := merged.Str(c.key); ok {
				raw = s
				normalized = Normalize(s)
			}
		}
		if raw == "" {
			continue
		}
		details = append(details, model.TypeSourceDetail{
			Source:         c.source,
			RawType:        raw,
			NormalizedType: string(normalized),
		})
		if normalized == CategoryUnknown {
			continue
		}
		tally[normalized]++
		if _, seen := firstSeen[normalized]; !seen {
			firstSeen[normalized] = i
		}
	}

	winner := CategoryUnknown
	bestVotes := 0
	bestFirst := len(typeCandidates)
	for cat, votes := range tally {
		if votes > bestVotes || (votes == bestVotes && firstSeen[cat] < bestFirst) {
			winner = cat
			bestVotes = votes
			bestFirst = firstSeen[cat]
		}
	}

	result := model.IPType{Value: string(winner), Votes: details}
	if winner != CategoryUnknown {
		for _, d := range details {
			if d.NormalizedType == string(winner) {
				result.RawType = d.RawType
				break
			}
		}
	}
	return result
}

// IsHosting implements §4.6/I5: true if the vote winner is datacenter, OR
// the ipinfo hosting-privacy flag is set, OR any individual raw-type
// string normalizes to datacenter, OR localDatacenterHint (the local ASN
// database's datacenter match) is set.
func IsHosting(ipType model.IPType, merged model.MergedRecord, localDatacenterHint bool) bool {
	if ipType.Value == string(CategoryDatacenter) {
		return true
	}
	if hosting, ok := merged.Bool("ipinfo_privacy_hosting"); ok && hosting {
		return true
	}
	for _, v := range ipType.Votes {
		if Category(v.NormalizedType) == CategoryDatacenter {
			return true
		}
	}
	if localDatacenterHint {
		return true
	}
	return false
}

// NativeJudgment implements the native-vs-broadcast comparison of §4.6/I4.
func NativeJudgment(merged model.MergedRecord) model.IPSource {
	geoCountry := firstNonEmpty(merged, "ip2location_country_code", "country_code", "ipinfo_country")
	registryCountry, _ := merged.Str("ipguide_asn_country")
	registryCountry = strings.ToUpper(registryCountry)

	out := model.IPSource{GeoCountry: geoCountry, RegistryCountry: registryCountry}

	switch {
	case geoCountry == "" && registryCountry == "":
		out.Reason = "insufficient data"
	case geoCountry == "" || registryCountry == "":
		out.Reason = "insufficient data: missing " + missingLabel(geoCountry, registryCountry)
	case geoCountry == registryCountry:
		t := true
		out.IsNative = &t
		out.Reason = fmt.Sprintf("registry == geo (%s)", geoCountry)
	default:
		f := false
		out.IsNative = &f
		out.Reason = fmt.Sprintf("registry %s, geo %s", registryCountry, geoCountry)
	}
	return out
}

func missingLabel(geo, registry string) string {
	if geo == "" && registry != "" {
		return "geoCountry"
	}
	if registry == "" && geo != "" {
		return "registryCountry"
	}
	return "geoCountry, registryCountry"
}

func firstNonEmpty(merged model.MergedRecord, keys ...string) string {
	for _, k := range keys {
		if v, ok := merged.Str(k); ok {
			return strings.ToUpper(v)
		}
	}
	return ""
}
