package inventory

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nconklindev/stockboard/internal/types"
)

// categoryFields are checked in order; the first non-empty one is the match subject.
var categoryFields = []string{"kategori", "type", "tipe_stok"}

// CategoryValue returns the lower-cased category subject of a record.
func CategoryValue(rec types.Record) (string, bool) {
	for _, field := range categoryFields {
		if s, ok := Text(rec[field]); ok {
			return strings.ToLower(s), true
		}
	}
	return "", false
}

// Keywords returns the match keywords of a bucket, defaulting to its key
// with the first dash replaced by a space.
func Keywords(def types.BucketDef) []string {
	if len(def.Keywords) > 0 {
		return def.Keywords
	}
	return []string{strings.Replace(def.Key, "-", " ", 1)}
}

// wholeWordMaxLen is the longest keyword that must match a whole word.
// Two-letter keys such as "ok" and "op" would otherwise match inside "stok".
const wholeWordMaxLen = 2

// Match reports whether the category subject contains any of the bucket's
// keywords. Short keywords only match a whole word of the subject.
func Match(def types.BucketDef, subject string) bool {
	var words []string
	for _, kw := range Keywords(def) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if utf8.RuneCountInString(kw) <= wholeWordMaxLen {
			if words == nil {
				words = strings.FieldsFunc(subject, isSeparator)
			}
			if slices.Contains(words, kw) {
				return true
			}
			continue
		}
		if strings.Contains(subject, kw) {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Partition is the result of Categorize: records per bucket key plus the
// number of records no bucket accepted.
type Partition struct {
	Buckets map[string][]types.Record
	Dropped int
}

// Categorize assigns every record to the first bucket (in definition order)
// whose keywords match its category value. Every defined bucket is present
// in the result, possibly empty. Records without a matching bucket are dropped.
func Categorize(records []types.Record, defs []types.BucketDef) Partition {
	p := Partition{Buckets: make(map[string][]types.Record, len(defs))}
	for _, def := range defs {
		p.Buckets[def.Key] = []types.Record{}
	}

	for _, rec := range records {
		subject, ok := CategoryValue(rec)
		if !ok {
			p.Dropped++
			continue
		}
		placed := false
		for _, def := range defs {
			if Match(def, subject) {
				p.Buckets[def.Key] = append(p.Buckets[def.Key], rec)
				placed = true
				break
			}
		}
		if !placed {
			p.Dropped++
		}
	}
	return p
}
