package derive

import (
	"fmt"

	"github.com/ipshield/reputation-engine/internal/model"
)

// scalarFieldSources lists, for each simple user-visible field, the
// (source, key-within-that-provider's-own-Data-map) pairs to walk per
// §4.6 "per-field provenance". Because each provider's Data lives in its
// own map keyed by source name, same-named keys across providers (e.g.
// "timezone") never collide here the way they can in the shared merged
// map.
var scalarFieldSources = map[string][]struct{ source, key string }{
	"timezone": {
		{"ipinfo", "timezone"}, {"ipqs", "timezone"}, {"ip2location", "timezone"},
	},
	"isp": {
		{"ipinfo", "isp"}, {"ipqs", "isp"}, {"abuseipdb", "isp"}, {"ip2location", "isp"},
	},
	"organization": {
		{"ipinfo", "organization"}, {"ipqs", "organization"},
		{"abuseipdb", "organization"}, {"ip2location", "organization"},
	},
}

// FieldProvenance walks the fixed per-field source lists and produces the
// {value, sources[]} table from §3/§4.6, plus the location/coordinates/asn/
// ipType composites that aren't simple scalar copies.
func FieldProvenance(providersMap map[string]model.ProviderResult, ipType model.IPType) map[string]model.FieldValue {
	out := map[string]model.FieldValue{}

	for field, specs := range scalarFieldSources {
		var sources []model.FieldProvenance
		var value any
		for _, spec := range specs {
			pr, ok := providersMap[spec.source]
			if !ok || pr.Status != model.StatusSuccess || pr.Data == nil {
				continue
			}
			v, ok := pr.Data[spec.key]
			if !ok || v == nil || v == "" {
				continue
			}
			sources = append(sources, model.FieldProvenance{Source: spec.source, Value: v})
			if value == nil {
				value = v
			}
		}
		out[field] = model.FieldValue{Value: value, Sources: sources}
	}

	out["asn"] = asnProvenance(providersMap)
	out["coordinates"] = coordinateProvenance(providersMap)
	out["location"] = locationProvenance(providersMap)
	out["ipType"] = ipTypeProvenance(ipType)

	return out
}

func asnProvenance(providersMap map[string]model.ProviderResult) model.FieldValue {
	type spec struct{ source, key string }
	specs := []spec{{"ipguide", "asn"}, {"ip2location", "ip2location_asn"}}

	var sources []model.FieldProvenance
	var value any
	for _, s := range specs {
		pr, ok := providersMap[s.source]
		if !ok || pr.Status != model.StatusSuccess || pr.Data == nil {
			continue
		}
		v, ok := pr.Data[s.key]
		if !ok || v == nil {
			continue
		}
		sources = append(sources, model.FieldProvenance{Source: s.source, Value: v})
		if value == nil {
			value = v
		}
	}
	return model.FieldValue{Value: value, Sources: sources}
}

func coordinateProvenance(providersMap map[string]model.ProviderResult) model.FieldValue {
	order := []string{"ipinfo", "ipqs", "ip2location"}
	var sources []model.FieldProvenance
	var value any
	for _, source := range order {
		pr, ok := providersMap[source]
		if !ok || pr.Status != model.StatusSuccess || pr.Data == nil {
			continue
		}
		lat, latOK := pr.Data["latitude"]
		lon, lonOK := pr.Data["longitude"]
		if !latOK || !lonOK {
			continue
		}
		coord := fmt.Sprintf("%v,%v", lat, lon)
		sources = append(sources, model.FieldProvenance{Source: source, Value: coord})
		if value == nil {
			value = coord
		}
	}
	return model.FieldValue{Value: value, Sources: sources}
}

func locationProvenance(providersMap map[string]model.ProviderResult) model.FieldValue {
	order := []string{"ipinfo", "ipqs", "ip2location"}
	var sources []model.FieldProvenance
	var value any
	for _, source := range order {
		pr, ok := providersMap[source]
		if !ok || pr.Status != model.StatusSuccess || pr.Data == nil {
			continue
		}
		city, _ := pr.Data["city"].(string)
		region, _ := pr.Data["region"].(string)
		if city == "" && region == "" {
			continue
		}
		loc := city
		if region != "" {
			if loc != "" {
				loc += ", "
			}
			loc += region
		}
		sources = append(sources, model.FieldProvenance{Source: source, Value: loc})
		if value == nil {
			value = loc
		}
	}
	return model.FieldValue{Value: value, Sources: sources}
}

func ipTypeProvenance(ipType model.IPType) model.FieldValue {
	var sources []model.FieldProvenance
	for _, v := range ipType.Votes {
		sources = append(sources, model.FieldProvenance{Source: v.Source, Value: v.RawType})
	}
	var value any
	if ipType.Value != "" {
		value = ipType.Value
	}
	return model.FieldValue{Value: value, Sources: sources}
}
