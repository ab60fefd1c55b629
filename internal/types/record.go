package types

// Candidate is the transient output of extracting one listing page. It is
// consumed by the store immediately and never persisted as-is. Phone is the
// mandatory join key; everything else is best-effort and may be empty.
type Candidate struct {
	// Phone is the canonical 10-digit phone number.
	Phone string

	// Address is the normalized street address, if one was found.
	Address string

	// AgentName is a person name for the listing contact, if found.
	AgentName string

	// BusinessName is a company/management-company name, if found.
	BusinessName string
}

// PhoneRecord is one aggregated contact, keyed by phone. Addresses is sorted;
// Units is always derived from it, never stored independently.
type PhoneRecord struct {
	Phone        string
	AgentName    string
	BusinessName string
	Addresses    []string
	Units        int
}

// Source labels for combined output rows.
const (
	SourceApartments = "apartments"
	SourceZillow     = "zillow"
	SourceBoth       = "both"
)

// CombinedRecord is a PhoneRecord merged across two exported tables, tagged
// with which crawl target(s) contributed it.
type CombinedRecord struct {
	PhoneRecord
	Source string
}
