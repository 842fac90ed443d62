// Package entryquery holds the query text and pagination helpers shared by
// the SQL entry stores.
package entryquery

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const maxTerms = 16

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"did": {}, "do": {}, "does": {}, "for": {}, "from": {}, "had": {}, "has": {}, "have": {},
	"how": {}, "i": {}, "in": {}, "is": {}, "it": {}, "me": {}, "my": {}, "of": {}, "on": {},
	"or": {}, "so": {}, "that": {}, "the": {}, "this": {}, "to": {}, "was": {}, "were": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "why": {}, "with": {}, "you": {},
}

// Terms reduces free text to at most 16 distinct lowercase alphanumeric
// terms with stopwords removed. Stopwords are kept when nothing else is left.
func Terms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	var dropped []string
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		if _, stop := stopwords[f]; stop {
			dropped = append(dropped, f)
			continue
		}
		terms = append(terms, f)
	}
	if len(terms) == 0 {
		terms = dropped
	}
	if len(terms) > maxTerms {
		terms = terms[:maxTerms]
	}
	return terms
}

// FTS5Match builds an OR query of quoted terms for an SQLite FTS5 MATCH.
func FTS5Match(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

// TSQuery builds an OR query for Postgres to_tsquery. Terms come from
// Terms, so they hold no tsquery operators.
func TSQuery(terms []string) string {
	return strings.Join(terms, " | ")
}

// Cursor marks the last entry of a page in (entry_date DESC, id DESC) order.
type Cursor struct {
	EntryDate time.Time
	ID        string
}

func EncodeCursor(c Cursor) string {
	raw := c.EntryDate.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token from EncodeCursor. An empty token yields
// ok=false and no error.
func DecodeCursor(token string) (Cursor, bool, error) {
	if strings.TrimSpace(token) == "" {
		return Cursor{}, false, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, false, fmt.Errorf("decode cursor: %w", err)
	}
	date, id, found := strings.Cut(string(raw), "|")
	if !found || id == "" {
		return Cursor{}, false, fmt.Errorf("malformed cursor")
	}
	ts, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return Cursor{}, false, fmt.Errorf("parse cursor date: %w", err)
	}
	return Cursor{EntryDate: ts, ID: id}, true, nil
}
