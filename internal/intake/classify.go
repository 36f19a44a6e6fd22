package intake

import (
	"strings"

	"github.com/user/schoolaide/internal/types"
)

// markerTable maps filename markers to document kinds. Matching is
// case-sensitive substring match. Precedence: the longest matching marker
// wins; between equal-length matches the earlier table entry wins. The table
// order is part of the contract and covered by tests.
var markerTable = []struct {
	marker string
	kind   types.DocumentKind
}{
	{"newsletter", types.KindNewsletter},
	{"handbook", types.KindHandbook},
	{"calendar", types.KindCalendar},
}

// Classify assigns a document kind to an attachment filename.
func Classify(filename string) types.DocumentKind {
	best := types.KindUnrecognized
	bestLen := 0
	for _, entry := range markerTable {
		if len(entry.marker) <= bestLen {
			continue
		}
		if strings.Contains(filename, entry.marker) {
			best = entry.kind
			bestLen = len(entry.marker)
		}
	}
	return best
}
