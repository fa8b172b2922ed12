package registry

import (
	"strings"

	"github.com/kailas-cloud/fundsearch/internal/domain/record"
)

// textFields are the fields embedded for a row, in order, after the name slot.
var textFields = []string{
	"category", "subCategory", "fund_type", "sector", "industry", "amcName",
	"rating", "asset", "assetType", "investmentDate", "marketValue",
	"holdingPercentage", "aum",
}

// SearchableText joins the text of a row's present descriptive fields. Only
// absent fields are skipped; empty strings, zeros and false are kept. The
// first slot holds name, or schemeName when name is absent.
func SearchableText(r record.Record) string {
	parts := make([]string, 0, len(textFields)+1)
	if name, ok := r.FirstPresent(record.FieldName, "schemeName"); ok {
		parts = append(parts, name)
	}
	for _, f := range textFields {
		if txt, ok := r.FirstPresent(f); ok {
			parts = append(parts, txt)
		}
	}
	return strings.Join(parts, " ")
}
