// Package derive computes the DerivedRecord from an aggregator's merged
// map: IP-type voting, native/broadcast judgment, the hosting flag, risk
// summary, and per-field provenance. See spec §4.6.
package derive

import "strings"

// Category is a normalized IP-usage type.
type Category string

const (
	CategoryResidential Category = "residential"
	CategoryMobile       Category = "mobile"
	CategoryDatacenter   Category = "datacenter"
	CategoryCommercial   Category = "commercial"
	CategoryEducation    Category = "education"
	CategoryGovernment   Category = "government"
	CategoryUnknown      Category = "unknown"
)

// includePatterns lists substrings that, found anywhere in the uppercased
// trimmed raw string, identify that category. Checked in this fixed order
// so a raw string matching multiple categories resolves deterministically.
var includePatterns = []struct {
	category Category
	patterns []string
}{
	{CategoryDatacenter, []string{"DATA CENTER", "DATACENTER", "HOSTING", "COLOCATION", "COLOCATED", "SERVER"}},
	{CategoryGovernment, []string{"GOVERNMENT", "MILITARY", "GOV"}},
	{CategoryEducation, []string{"EDUCATION", "UNIVERSITY", "SCHOOL", "ACADEMIC", "LIBRARY"}},
	{CategoryMobile, []string{"MOBILE", "CELLULAR", "WIRELESS", "3G", "4G", "5G"}},
	{CategoryCommercial, []string{"COMMERCIAL", "BUSINESS", "CORPORATE", "ORGANIZATION"}},
	{CategoryResidential, []string{"RESIDENTIAL", "ISP", "FIXED LINE", "BROADBAND", "HOME"}},
}

// Normalize maps a raw provider type string to a fixed category. "library"
// folds into education via the includePatterns table above. An empty or
// unmatched string normalizes to unknown.
func Normalize(raw string) Category {
	if raw == "" {
		return CategoryUnknown
	}
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if upper == "" {
		return CategoryUnknown
	}
	for _, entry := range includePatterns {
		for _, pattern := range entry.patterns {
			if strings.Contains(upper, pattern) {
				return entry.category
			}
		}
	}
	return CategoryUnknown
}
