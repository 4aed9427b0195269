package derive

import (
	"testing"

	"github.com/ipshield/reputation-engine/internal/model"
)

func TestVoteIPTypeAllDatacenter(t *testing.T) {
	merged := model.MergedRecord{
		"connection_type":        "Data Center",
		"usageType":              "Data Center/Web Hosting/Transit",
		"ip2location_usage":      "DCH",
		"ipinfo_privacy_hosting": true,
	}
	ipType := VoteIPType(merged)
	if ipType.Value != string(CategoryDatacenter) {
		t.Fatalf("expected datacenter, got %q", ipType.Value)
	}
	if !IsHosting(ipType, merged, false) {
		t.Fatal("expected isHosting true")
	}
}

func TestIsHostingFromLocalDatacenterHintAlone(t *testing.T) {
	merged := model.MergedRecord{}
	ipType := VoteIPType(merged)
	if IsHosting(ipType, merged, false) {
		t.Fatal("expected isHosting false with no signal at all")
	}
	if !IsHosting(ipType, merged, true) {
		t.Fatal("expected the local datacenter hint alone to set isHosting true")
	}
}

func TestVoteIPTypeResidentialWithConflictingGeo(t *testing.T) {
	merged := model.MergedRecord{
		"ipguide_asn_country": "DE",
		"country_code":        "US",
		"connection_type":     "Residential",
		"ip2location_usage":   "ISP",
		"usageType":           "Residential",
	}
	ipType := VoteIPType(merged)
	if ipType.Value != string(CategoryResidential) {
		t.Fatalf("expected residential, got %q", ipType.Value)
	}
	ipSource := NativeJudgment(merged)
	if ipSource.IsNative == nil || *ipSource.IsNative {
		t.Fatalf("expected isNative=false, got %+v", ipSource.IsNative)
	}
	if !contains(ipSource.Reason, "DE") || !contains(ipSource.Reason, "US") {
		t.Fatalf("expected reason to mention DE and US, got %q", ipSource.Reason)
	}
}

func TestVoteIPTypeUnknownWhenNoVotes(t *testing.T) {
	ipType := VoteIPType(model.MergedRecord{})
	if ipType.Value != string(CategoryUnknown) {
		t.Fatalf("expected unknown, got %q", ipType.Value)
	}
	if len(ipType.Votes) != 0 {
		t.Fatalf("expected no votes, got %+v", ipType.Votes)
	}
}

func TestNativeJudgmentMissingData(t *testing.T) {
	ipSource := NativeJudgment(model.MergedRecord{})
	if ipSource.IsNative != nil {
		t.Fatalf("expected nil isNative, got %v", *ipSource.IsNative)
	}
	if ipSource.Reason != "insufficient data" {
		t.Fatalf("unexpected reason: %q", ipSource.Reason)
	}
}

func TestNativeJudgmentMatch(t *testing.T) {
	merged := model.MergedRecord{
		"ipguide_asn_country": "us",
		"ip2location_country_code": "US",
	}
	ipSource := NativeJudgment(merged)
	if ipSource.IsNative == nil || !*ipSource.IsNative {
		t.Fatalf("expected isNative=true, got %+v", ipSource.IsNative)
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}
