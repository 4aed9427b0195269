package derive

import (
	"strings"
	"time"

	"github.com/ipshield/reputation-engine/internal/model"
)

// Derive computes the full DerivedRecord from an aggregator result, per
// §4.6. edge is the optional Cloudflare edge-snapshot-derived metrics
// block (glossary: authoritative for colo/TLS, subordinate to provider
// responses for geography/ASN).
func Derive(agg model.AggregateResult, edge *model.EdgeMetrics, cached bool) model.DerivedRecord {
	merged := agg.Merged
	if merged == nil {
		merged = model.MergedRecord{}
	}

	ipType := VoteIPType(merged)
	ipSource := NativeJudgment(merged)
	risk := RiskSummary(merged, ipType, agg.LocalDatacenterHint)

	location := buildLocation(merged, ipSource.GeoCountry)
	network := buildNetwork(merged, agg)

	summary := model.Summary{
		Location: location,
		Network:  network,
		IPType:   ipType,
		IPSource: ipSource,
		Risk:     risk,
		Edge:     edge,
	}

	fields := FieldProvenance(agg.Providers, ipType)

	return model.DerivedRecord{
		IP:        agg.IP,
		Summary:   summary,
		Fields:    fields,
		Providers: agg.Providers,
		Meta: model.Meta{
			Sources:        agg.Successful,
			ApiErrors:      agg.Errors,
			Cached:         cached || agg.PartiallyFromCache,
			CachedAPICount: agg.CachedAPICount,
			TotalAPICount:  agg.TotalAPICount,
			Timestamp:      time.Now(),
		},
	}
}

func buildLocation(merged model.MergedRecord, geoCountry string) model.Location {
	loc := model.Location{Country: geoCountry}
	if city, ok := merged.Str("city"); ok {
		loc.City = city
	}
	if region, ok := merged.Str("region"); ok {
		loc.Region = region
	}
	if tz, ok := merged.Str("timezone"); ok {
		loc.Timezone = tz
	}
	if lat, ok := merged.Num("latitude"); ok {
		loc.Latitude = lat
	}
	if lon, ok := merged.Num("longitude"); ok {
		loc.Longitude = lon
	}

	var parts []string
	for _, p := range []string{loc.City, loc.Region, loc.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	loc.LocationStr = strings.Join(parts, ", ")
	return loc
}

func buildNetwork(merged model.MergedRecord, agg model.AggregateResult) model.Network {
	net := model.Network{}
	if isp, ok := merged.Str("isp"); ok {
		net.ISP = isp
	}
	if org, ok := merged.Str("organization"); ok {
		net.Organization = org
	}
	if agg.HasASN {
		net.ASN = agg.ASN
	} else if asn, ok := merged.Num("asn"); ok {
		net.ASN = int(asn)
	}
	return net
}
