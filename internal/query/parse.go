// Package query parses search requests and ranks documents against a
// loaded index.
package query

import "strings"

// Query is a parsed search request. Terms and phrases are all required
// (AND semantics); Level and Ext narrow the candidates.
type Query struct {
	Terms   []string
	Phrases [][]string
	Level   string // "ERROR" or "WARN"; empty means no filter
	Ext     string // lowercased path suffix like ".go"; empty means no filter
}

// Parse splits a raw query into terms, quoted phrases and filters.
// `level:error` and `ext:.go` words become filters; quoted strings become
// phrases; everything else is a required term. Terms are lowercased.
func Parse(raw string) Query {
	var q Query
	var buf strings.Builder
	inQuote := false

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		word := buf.String()
		buf.Reset()
		switch {
		case strings.HasPrefix(word, "level:"):
			q.Level = strings.ToUpper(strings.TrimPrefix(word, "level:"))
		case strings.HasPrefix(word, "ext:"):
			q.Ext = strings.ToLower(strings.TrimPrefix(word, "ext:"))
		default:
			q.Terms = append(q.Terms, strings.ToLower(word))
		}
	}

	for _, r := range raw {
		switch {
		case r == '"':
			if inQuote {
				words := strings.Fields(strings.ToLower(buf.String()))
				buf.Reset()
				if len(words) > 0 {
					q.Phrases = append(q.Phrases, words)
				}
				inQuote = false
			} else {
				flush()
				inQuote = true
			}
		case r == ' ' && !inQuote:
			flush()
		default:
			buf.WriteRune(r)
		}
	}
	flush()
	return q
}

// Required returns how many terms and phrases a document must match.
func (q Query) Required() int {
	return len(q.Terms) + len(q.Phrases)
}

// DisplayTerm returns the word snippets are extracted around: the first
// term, else the first word of the first phrase.
func (q Query) DisplayTerm() string {
	if len(q.Terms) > 0 {
		return q.Terms[0]
	}
	if len(q.Phrases) > 0 {
		return q.Phrases[0][0]
	}
	return ""
}
