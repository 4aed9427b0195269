// Package exits implements the pure, I/O-free prepareExits function from
// spec §6.1/§8 (laws L2, L3): dedup input exits by IP, attach a stable
// exit-type ordering, and report the count of unique IPs.
package exits

import "sort"

// Input is one requested exit: its type and the edge snapshot supplying
// its candidate IP. Caller-resolved — prepareExits never does I/O.
type Input struct {
	ExitType string
	IP       string
	ASN      int
	CFData   any
}

// Row is one prepared row in the output ipList.
type Row struct {
	IP       string
	ExitType string
	ASN      int
	HasASN   bool
	CFData   any
	Order    int
}

// Result is prepareExits's output.
type Result struct {
	IPList        []Row
	UniqueIPCount int
}

// exitTypeRank gives the fixed ordering from §6.1: ipv4 < ipv6 < warp_v4 <
// warp_v6 < he_v6. Unknown types sort after all known ones but are still
// ordered deterministically among themselves (lexicographically).
var exitTypeRank = map[string]int{
	"ipv4":    1,
	"ipv6":    2,
	"warp_v4": 3,
	"warp_v6": 4,
	"he_v6":   5,
}

// Prepare deduplicates exits by IP (later duplicates collapse to the first
// occurrence), sorts the unique rows by the exitType ordering above with
// ties broken lexicographically by exitType, and sets each row's Order to
// its 0-based position in that sorted list.
// It performs no I/O and is idempotent: Prepare(Prepare(e)) == Prepare(e).
func Prepare(inputs []Input) Result {
	seen := make(map[string]bool, len(inputs))
	rows := make([]Row, 0, len(inputs))

	for _, in := range inputs {
		if in.IP == "" || seen[in.IP] {
			continue
		}
		seen[in.IP] = true
		rows = append(rows, Row{
			IP:       in.IP,
			ExitType: in.ExitType,
			ASN:      in.ASN,
			HasASN:   in.ASN != 0,
			CFData:   in.CFData,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ri, oki := exitTypeRank[rows[i].ExitType]
		rj, okj := exitTypeRank[rows[j].ExitType]
		if !oki {
			ri = len(exitTypeRank) + 1
		}
		if !okj {
			rj = len(exitTypeRank) + 1
		}
		if ri != rj {
			return ri < rj
		}
		return rows[i].ExitType < rows[j].ExitType
	})

	for i := range rows {
		rows[i].Order = i
	}

	return Result{IPList: rows, UniqueIPCount: len(rows)}
}
