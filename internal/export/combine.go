package export

import (
	"sort"

	"github.com/dmaher/rentleads/internal/types"
)

// Combine merges per-site exports into one deduplicated list keyed by phone.
// A phone present in both inputs gets source "both", with names resolved
// first-non-empty (apartments first, matching store semantics) and address
// sets unioned. Units are recomputed from the merged set. Output is sorted by
// phone.
func Combine(apartments, zillow []types.PhoneRecord) []types.CombinedRecord {
	merged := make(map[string]*types.CombinedRecord)

	fold := func(records []types.PhoneRecord, source string) {
		for _, rec := range records {
			existing, ok := merged[rec.Phone]
			if !ok {
				combined := types.CombinedRecord{PhoneRecord: rec, Source: source}
				combined.Addresses = append([]string(nil), rec.Addresses...)
				merged[rec.Phone] = &combined
				continue
			}
			if existing.Source != source {
				existing.Source = types.SourceBoth
			}
			if existing.AgentName == "" {
				existing.AgentName = rec.AgentName
			}
			if existing.BusinessName == "" {
				existing.BusinessName = rec.BusinessName
			}
			existing.Addresses = unionAddresses(existing.Addresses, rec.Addresses)
		}
	}
	fold(apartments, types.SourceApartments)
	fold(zillow, types.SourceZillow)

	out := make([]types.CombinedRecord, 0, len(merged))
	for _, rec := range merged {
		sort.Strings(rec.Addresses)
		rec.Units = len(rec.Addresses)
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phone < out[j].Phone })
	return out
}

func unionAddresses(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, addr := range a {
		seen[addr] = true
	}
	for _, addr := range b {
		if !seen[addr] {
			seen[addr] = true
			a = append(a, addr)
		}
	}
	return a
}
