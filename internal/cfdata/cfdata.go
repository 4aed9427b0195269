// Package cfdata defines the Cloudflare edge-snapshot type referenced by
// the exit-checking endpoints. It is deliberately a thin data holder: the
// snapshot itself is produced by the edge layer (out of scope per spec §1)
// and is authoritative for colo/TLS but subordinate to provider responses
// for geography/ASN once Derivation has run, per the glossary.
package cfdata

import "github.com/ipshield/reputation-engine/internal/model"

// Snapshot is one pre-computed geographic/ASN/TLS record supplied by the
// edge layer for a given client request.
type Snapshot struct {
	Colo       string `json:"colo,omitempty"`
	Country    string `json:"country,omitempty"`
	ASN        int    `json:"asn,omitempty"`
	ASNOrg     string `json:"asOrganization,omitempty"`
	TLSVersion string `json:"tlsVersion,omitempty"`
	BotScore   *int   `json:"botScore,omitempty"`
	IsWarp     bool   `json:"isWarp,omitempty"`
}

// HasData reports whether the edge layer actually supplied anything.
func (s Snapshot) HasData() bool {
	return s.Colo != "" || s.Country != "" || s.ASN != 0 || s.BotScore != nil
}

// ToEdgeMetrics projects the snapshot's colo/bot/warp fields into the
// model's EdgeMetrics block — authoritative for colo/TLS, never used for
// geography/ASN, which stay the provider pipeline's responsibility.
func (s Snapshot) ToEdgeMetrics() *model.EdgeMetrics {
	if !s.HasData() {
		return nil
	}
	return &model.EdgeMetrics{
		Colo:     s.Colo,
		BotScore: s.BotScore,
		IsWarp:   s.IsWarp,
	}
}
