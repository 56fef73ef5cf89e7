package inventory

import "github.com/nconklindev/stockboard/internal/types"

// Materialize turns positional rows into records keyed by canonical field.
// Short rows leave trailing fields absent; cells past the last header are ignored.
func Materialize(rawHeaders []string, rawRows [][]any, headerMap HeaderMap) []types.Record {
	records := make([]types.Record, 0, len(rawRows))
	for _, row := range rawRows {
		rec := make(types.Record, len(rawHeaders))
		for i, h := range rawHeaders {
			if i >= len(row) {
				break
			}
			key, ok := headerMap[h]
			if !ok {
				key = CanonicalKey(h)
			}
			rec[key] = row[i]
		}
		records = append(records, rec)
	}
	return records
}
