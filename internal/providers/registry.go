package providers

import "github.com/ipshield/reputation-engine/internal/config"

// All is the full declarative provider table, in the same order the
// predecessor's InitProviders built its slice: no-key providers first, then
// key-gated non-ASN providers, then the ASN-dependent wave.
func All() []*Descriptor {
	return []*Descriptor{
		IPGuide,
		IPInfo,
		IPQS,
		AbuseIPDB,
		IP2Location,
		CloudflareASN,
	}
}

// Partition splits the enabled subset of All() into Wave 1 (no-key and
// key-gated non-ASN providers) and Wave 2 (ASN-dependent providers), per
// spec §4.5. A provider absent from cfg's credentials where NeedsKey is true
// is excluded entirely rather than attempted with an empty key.
func Partition(cfg *config.Config) (wave1, wave2 []*Descriptor) {
	for _, d := range All() {
		if d.Enabled != nil && !d.Enabled(cfg) {
			continue
		}
		if d.NeedsKey {
			keys := d.Keys(cfg)
			if len(keys) == 0 {
				continue
			}
		}
		if d.ASNDependent {
			wave2 = append(wave2, d)
		} else {
			wave1 = append(wave1, d)
		}
	}
	return wave1, wave2
}
