// Package providers holds the declarative table of third-party IP
// reputation/geolocation providers: how to build a request for each, how to
// detect a logical (200-but-failed) error, and how to project a response
// into the flat, namespaced map the aggregator merges.
//
// Modeled on the Provider table + query functions in the single-file
// predecessor (queryIPAPI, queryIPWhois, InitProviders, ...), generalized
// from "one query function per provider" into a declarative descriptor so
// the aggregator can drive URL/header/query construction, error detection,
// and normalization uniformly instead of each provider hand-rolling an
// independent function.
package providers

import "github.com/ipshield/reputation-engine/internal/config"

// Request is the input to a provider's URL/header/query builders.
type Request struct {
	IP  string
	ASN int
	Key string
}

// Payload is a provider's decoded JSON response, as a generic map so
// CheckError/Transform never need a fixed Go struct and can never panic on
// a shape deviation — missing fields simply come back absent.
type Payload map[string]any

// Descriptor declaratively describes one provider.
type Descriptor struct {
	// Name is the stable source identifier (e.g. "ipinfo").
	Name string

	// ASNDependent marks a Wave-2 provider: fetched only once Wave 1 has
	// produced an ASN, using that ASN instead of the target IP.
	ASNDependent bool

	// NeedsKey reports whether this provider requires a credential pool.
	NeedsKey bool

	// Enabled reports whether this provider should be considered at all,
	// given the configured credentials.
	Enabled func(cfg *config.Config) bool

	// Keys returns this provider's configured credential list (possibly
	// empty) from config. Unused when NeedsKey is false.
	Keys func(cfg *config.Config) []string

	// BuildURL constructs the request URL.
	BuildURL func(req Request) string

	// Headers builds request headers (used by key-as-header providers).
	Headers func(req Request) map[string]string

	// Query builds additional query parameters (used by key-as-query
	// providers, beyond whatever BuildURL already encoded).
	Query func(req Request) map[string]string

	// CheckError reports whether a 200 response is semantically a failure.
	CheckError func(p Payload) bool

	// ErrorMessage extracts a human message when CheckError fires.
	ErrorMessage func(p Payload) string

	// Transform projects the payload into the flat map used for merging.
	// Most keys carry a source prefix; a few (asn, isp, city, country_code,
	// ...) are shared between providers. Must never panic on a
	// missing/mistyped field.
	Transform func(p Payload) map[string]any

	// RawTransform optionally projects a reduced payload to preserve for
	// UI/debugging. Nil means the raw payload is preserved verbatim.
	RawTransform func(p Payload) any
}
