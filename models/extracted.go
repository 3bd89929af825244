package models

// Extraction caps. They bound output size independently of page size.
const (
	MaxTables    = 3
	MaxTableRows = 10
	MaxDates     = 10
	MaxAmounts   = 10
	MaxContacts  = 5
)

// Table is a single extracted HTML table.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ExtractedData holds the structured facts pulled out of a page.
// Use NewExtractedData so the caps are always applied.
type ExtractedData struct {
	Tables   []Table  `json:"tables"`
	Dates    []string `json:"dates"`
	Amounts  []string `json:"amounts"`
	Contacts []string `json:"contacts"`
}

// NewExtractedData builds an ExtractedData, truncating every list to its cap.
func NewExtractedData(tables []Table, dates, amounts, contacts []string) ExtractedData {
	capped := make([]Table, 0, min(len(tables), MaxTables))
	for _, t := range truncate(tables, MaxTables) {
		headers := t.Headers
		if headers == nil {
			headers = []string{}
		}
		capped = append(capped, Table{
			Headers: headers,
			Rows:    truncate(t.Rows, MaxTableRows),
		})
	}

	return ExtractedData{
		Tables:   capped,
		Dates:    truncate(dates, MaxDates),
		Amounts:  truncate(amounts, MaxAmounts),
		Contacts: truncate(contacts, MaxContacts),
	}
}

// IsEmpty reports whether nothing was extracted.
func (d ExtractedData) IsEmpty() bool {
	return len(d.Tables) == 0 && len(d.Dates) == 0 && len(d.Amounts) == 0 && len(d.Contacts) == 0
}

func truncate[T any](items []T, n int) []T {
	if items == nil {
		return []T{}
	}
	if len(items) > n {
		return items[:n:n]
	}
	return items
}
