package exits

import "testing"

func TestPrepareDedupsByIP(t *testing.T) {
	in := []Input{
		{ExitType: "ipv4", IP: "1.1.1.1"},
		{ExitType: "ipv6", IP: "2606::1"},
		{ExitType: "ipv4", IP: "1.1.1.1"},
	}
	r := Prepare(in)
	if r.UniqueIPCount != 2 {
		t.Fatalf("expected 2 unique IPs, got %d", r.UniqueIPCount)
	}
}

func TestPrepareOrdering(t *testing.T) {
	in := []Input{
		{ExitType: "he_v6", IP: "a"},
		{ExitType: "ipv4", IP: "b"},
		{ExitType: "warp_v6", IP: "c"},
		{ExitType: "ipv6", IP: "d"},
		{ExitType: "warp_v4", IP: "e"},
	}
	r := Prepare(in)
	got := make([]string, len(r.IPList))
	for i, row := range r.IPList {
		got[i] = row.ExitType
	}
	want := []string{"ipv4", "ipv6", "warp_v4", "warp_v6", "he_v6"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestPrepareIsIdempotent(t *testing.T) {
	in := []Input{{ExitType: "ipv4", IP: "1.1.1.1"}, {ExitType: "ipv6", IP: "2.2.2.2"}}
	once := Prepare(in)

	reInputs := make([]Input, len(once.IPList))
	for i, row := range once.IPList {
		reInputs[i] = Input{ExitType: row.ExitType, IP: row.IP, ASN: row.ASN, CFData: row.CFData}
	}
	twice := Prepare(reInputs)

	if len(once.IPList) != len(twice.IPList) {
		t.Fatalf("expected idempotent result, lengths differ: %d vs %d", len(once.IPList), len(twice.IPList))
	}
	for i := range once.IPList {
		if once.IPList[i].IP != twice.IPList[i].IP || once.IPList[i].ExitType != twice.IPList[i].ExitType {
			t.Fatalf("expected idempotent result at index %d", i)
		}
	}
}

func TestPrepareDedupStableAcrossExtraDuplicate(t *testing.T) {
	ab := Prepare([]Input{{ExitType: "ipv4", IP: "a"}, {ExitType: "ipv6", IP: "b"}})
	aba := Prepare([]Input{{ExitType: "ipv4", IP: "a"}, {ExitType: "ipv6", IP: "b"}, {ExitType: "ipv4", IP: "a"}})

	if len(ab.IPList) != len(aba.IPList) {
		t.Fatalf("expected equal-length ipList, got %d vs %d", len(ab.IPList), len(aba.IPList))
	}
	for i := range ab.IPList {
		if ab.IPList[i].IP != aba.IPList[i].IP {
			t.Fatalf("expected same ipList at index %d, got %q vs %q", i, ab.IPList[i].IP, aba.IPList[i].IP)
		}
	}
}
