package index

import (
	"fmt"
	"strings"

	"github.com/sorenblk/quarry/internal/models"
)

// simCandidate is one note scored by the lexical-similarity heuristic.
type simCandidate struct {
	note  models.Note
	score float64
}

// similarityCandidates scans tag-filtered notes and scores those whose
// title or preview contains any query token. With no query tokens the whole
// tag-filtered set becomes candidates at score zero, which leaves ordering
// to the recency tie-break.
func (db *DB) similarityCandidates(query string, tags []string) ([]simCandidate, error) {
	sqlStr := `SELECT id, title, created, updated, path, etag, preview FROM notes`
	var args []any
	if len(tags) > 0 {
		sqlStr += ` WHERE id IN (
			SELECT note_id FROM tags WHERE tag IN (` + placeholders(len(tags)) + `)
			GROUP BY note_id HAVING COUNT(DISTINCT tag) = ?)`
		for _, t := range tags {
			args = append(args, t)
		}
		args = append(args, len(tags))
	}

	rows, err := db.conn.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("index: similarity scan: %w", err)
	}
	defer rows.Close()

	notes, err := scanNotes(rows)
	if err != nil {
		return nil, err
	}

	lowerQuery := strings.ToLower(strings.TrimSpace(query))
	tokens := strings.Fields(lowerQuery)
	queryGrams := trigrams(lowerQuery)

	var out []simCandidate
	for _, n := range notes {
		title := strings.ToLower(n.Title)
		hay := title + " " + strings.ToLower(n.Preview)

		if len(tokens) == 0 {
			if len(tags) > 0 {
				out = append(out, simCandidate{note: n})
			}
			continue
		}

		matched := 0
		for _, tok := range tokens {
			if strings.Contains(hay, tok) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		score := 0.6*float64(matched)/float64(len(tokens)) +
			0.4*trigramJaccard(queryGrams, trigrams(hay))
		if strings.Contains(hay, lowerQuery) {
			score += 0.2
		}
		if strings.Contains(title, lowerQuery) {
			score += 0.1
		}
		out = append(out, simCandidate{note: n, score: score})
	}
	return out, nil
}

// trigrams returns the set of 3-character substrings of s. Strings shorter
// than 3 characters have no trigrams and therefore similarity zero.
func trigrams(s string) map[string]struct{} {
	runes := []rune(s)
	if len(runes) < 3 {
		return nil
	}
	out := make(map[string]struct{}, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out[string(runes[i:i+3])] = struct{}{}
	}
	return out
}

// trigramJaccard is intersection-over-union of two trigram sets.
func trigramJaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	inter := 0
	for g := range a {
		if _, ok := b[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
