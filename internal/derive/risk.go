package derive

import "github.com/ipshield/reputation-engine/internal/model"

// RiskSummary copies the abuse/fraud/anonymity fields from the merged map
// and computes isHosting, per §4.6's "Risk summary". localDatacenterHint
// carries the local ASN database's datacenter cross-check (SPEC_FULL
// SUPPLEMENTED FEATURES), independent of whether any provider itself
// reported the ASN.
func RiskSummary(merged model.MergedRecord, ipType model.IPType, localDatacenterHint bool) model.Risk {
	risk := model.Risk{IsHosting: IsHosting(ipType, merged, localDatacenterHint)}

	if v, ok := merged.Num("fraudScore"); ok {
		risk.FraudScore = &v
	}
	if v, ok := merged.Num("abuseScore"); ok {
		risk.AbuseScore = &v
	}
	if v, ok := merged.Num("totalReports"); ok {
		risk.TotalReports = &v
	}
	if v, ok := merged.Str("lastReportedAt"); ok {
		risk.LastReportedAt = v
	}

	risk.IsVPN = anyTrue(merged, "ipqs_vpn", "ip2location_is_vpn", "ipinfo_privacy_vpn")
	risk.IsProxy = anyTrue(merged, "ipqs_proxy", "ipinfo_privacy_proxy")
	risk.IsTor = anyTrue(merged, "ipqs_tor", "ip2location_is_tor", "abuseipdb_tor", "ipinfo_privacy_tor")

	return risk
}

func anyTrue(merged model.MergedRecord, keys ...string) bool {
	for _, k := range keys {
		if v, ok := merged.Bool(k); ok && v {
			return true
		}
	}
	return false
}
