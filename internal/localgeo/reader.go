// Package localgeo wraps an optional local MMDB (GeoLite2-ASN or similar) so
// the aggregator can seed a Wave-2 ASN hint without waiting on a network
// round trip, and cross-check provider-reported ASNs against a known
// datacenter list.
package localgeo

import (
	"fmt"
	"net"
	"os"

	"github.com/oschwald/maxminddb-golang"
	"github.com/sirupsen/logrus"
)

type asnRecord struct {
	AutonomousSystemNumber       int    `maxminddb:"autonomous_system_number"`
	AutonomousSystemOrganization string `maxminddb:"autonomous_system_organization"`
}

// Reader performs local ASN lookups from an MMDB file. A nil *Reader is
// valid and always misses, so callers never need a presence check.
type Reader struct {
	db *maxminddb.Reader
}

// Open tries to load the MMDB at path. Returns (nil, nil) when the path is
// empty or the file doesn't exist — local lookup is an optimization, not a
// requirement, so its absence must never be fatal.
func Open(path string, log *logrus.Logger) (*Reader, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.WithField("path", path).Debug("local ASN database not found, local hint disabled")
		return nil, nil
	}

	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mmdb: %w", err)
	}
	log.WithField("path", path).Info("loaded local ASN database")
	return &Reader{db: db}, nil
}

// Hint is the result of a local ASN lookup.
type Hint struct {
	ASN          int
	ASNOrg       string
	IsDatacenter bool
}

// Lookup resolves an ASN hint for ip. Returns ok=false on any miss: nil
// reader, invalid IP, or no MMDB record.
func (r *Reader) Lookup(ip string) (Hint, bool) {
	if r == nil || r.db == nil {
		return Hint{}, false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Hint{}, false
	}

	var rec asnRecord
	if err := r.db.Lookup(parsed, &rec); err != nil || rec.AutonomousSystemNumber == 0 {
		return Hint{}, false
	}

	hint := Hint{ASN: rec.AutonomousSystemNumber, ASNOrg: rec.AutonomousSystemOrganization}
	if org, ok := IsKnownDatacenterASN(hint.ASN); ok {
		hint.IsDatacenter = true
		if hint.ASNOrg == "" {
			hint.ASNOrg = org
		}
	}
	return hint, true
}

// Close releases the underlying MMDB file handle. Safe on a nil Reader.
func (r *Reader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Loaded reports whether a database is open.
func (r *Reader) Loaded() bool {
	return r != nil && r.db != nil
}
