package inventory

import (
	"regexp"
	"strings"
)

// HeaderMap maps a raw spreadsheet header to its canonical field key.
type HeaderMap map[string]string

// canonicalHeaders is keyed by the trimmed, upper-cased raw header.
var canonicalHeaders = map[string]string{
	"NPP":         "npp",
	"TAHUN":       "tahun",
	"KATEGORI":    "kategori",
	"WP":          "wp",
	"PPB":         "ppb",
	"PBB":         "ppb",
	"SBU":         "sbu",
	"AREA":        "area",
	"PELANGGAN":   "pelanggan",
	"PROYEK":      "proyek",
	"TYPE":        "type",
	"TIPE STOK":   "tipe_stok",
	"UMUR STOK":   "umur_stok",
	"RANGE UMUR":  "range_umur",
	"KETERANGAN":  "keterangan",
	"JUMLAH STOK": "jumlah_stok",
	"SALDO":       "saldo",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CanonicalKey returns the field key for a single raw header.
func CanonicalKey(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if key, ok := canonicalHeaders[strings.ToUpper(trimmed)]; ok {
		return key
	}
	return whitespaceRun.ReplaceAllString(strings.ToLower(trimmed), "_")
}

// NormalizeHeaders builds the header map for one upload.
func NormalizeHeaders(rawHeaders []string) HeaderMap {
	m := make(HeaderMap, len(rawHeaders))
	for _, h := range rawHeaders {
		m[h] = CanonicalKey(h)
	}
	return m
}

// Collisions lists canonical keys claimed by more than one distinct raw
// header, in column order. Later columns win when records are materialized.
func (m HeaderMap) Collisions(rawHeaders []string) map[string][]string {
	seen := make(map[string][]string)
	for _, h := range rawHeaders {
		key := m[h]
		dup := false
		for _, prev := range seen[key] {
			if prev == h {
				dup = true
				break
			}
		}
		if !dup {
			seen[key] = append(seen[key], h)
		}
	}

	collisions := make(map[string][]string)
	for key, raws := range seen {
		if len(raws) > 1 {
			collisions[key] = raws
		}
	}
	return collisions
}
