package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sorenblk/quarry/internal/models"
	"github.com/sorenblk/quarry/internal/parser"
)

// Fusion weights. A note present in both candidate sets gets both
// contributions; absence from one contributes zero for that term.
const (
	keywordWeight    = 0.7
	similarityWeight = 0.5
)

const defaultSearchLimit = 20

// SearchQuery is the advanced search input.
type SearchQuery struct {
	Query     string
	Tags      []string
	TitleOnly bool
	TagOnly   bool
	Limit     int
}

// Search runs a plain hybrid search over the whole index.
func (db *DB) Search(query string, limit int) ([]models.SearchHit, error) {
	return db.SearchAdvanced(SearchQuery{Query: query, Limit: limit})
}

// SearchAdvanced fuses the keyword (full-text) and lexical-similarity
// candidate generators into one ranked list. Tag filters use AND semantics.
// TagOnly reinterprets query tokens as tags; TitleOnly bypasses fusion and
// does a case-insensitive title substring match ordered by recency.
func (db *DB) SearchAdvanced(q SearchQuery) ([]models.SearchHit, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	tags := make([]string, 0, len(q.Tags))
	for _, t := range q.Tags {
		if n := parser.NormalizeTag(t); n != "" {
			tags = append(tags, n)
		}
	}

	query := strings.TrimSpace(q.Query)
	if q.TagOnly {
		for _, tok := range strings.Fields(query) {
			if n := parser.NormalizeTag(tok); n != "" {
				tags = append(tags, n)
			}
		}
		query = ""
	}

	if query == "" && len(tags) == 0 {
		return nil, nil
	}

	if q.TitleOnly {
		return db.titleMatches(query, tags, limit)
	}

	candidates, err := db.similarityCandidates(query, tags)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(candidates))
	byID := make(map[string]models.Note, len(candidates))
	for _, c := range candidates {
		scores[c.note.ID] = similarityWeight * c.score
		byID[c.note.ID] = c.note
	}

	if query != "" {
		kwIDs, err := db.keywordCandidates(query, tags, limit*4)
		if err != nil {
			return nil, err
		}
		n := len(kwIDs)
		for i, id := range kwIDs {
			// Invert BM25 order into a [0,1] rank fraction.
			frac := 1.0 - float64(i)/float64(n)
			scores[id] += keywordWeight * frac
			if _, ok := byID[id]; !ok {
				note, err := db.GetNote(id)
				if err != nil {
					continue
				}
				byID[id] = *note
			}
		}
	}

	if len(scores) == 0 {
		// Keyword and similarity both came up empty. A tag-only or
		// tag-filtered query with real matches must still return them,
		// ordered by recency.
		if len(tags) > 0 {
			return db.tagFallback(tags, limit)
		}
		return nil, nil
	}

	hits := make([]models.SearchHit, 0, len(scores))
	for id, score := range scores {
		n := byID[id]
		hits = append(hits, models.SearchHit{ID: id, Title: n.Title, Preview: n.Preview, Score: score})
	}
	updated := func(id string) string { return byID[id].Updated }
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if u, v := updated(hits[i].ID), updated(hits[j].ID); u != v {
			return u > v
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// titleMatches is the TitleOnly path: substring match on title, recency
// ordered, no scoring.
func (db *DB) titleMatches(query string, tags []string, limit int) ([]models.SearchHit, error) {
	sqlStr := `SELECT id, title, preview FROM notes WHERE LOWER(title) LIKE ?`
	args := []any{"%" + strings.ToLower(query) + "%"}
	if len(tags) > 0 {
		sqlStr += ` AND id IN (
			SELECT note_id FROM tags WHERE tag IN (` + placeholders(len(tags)) + `)
			GROUP BY note_id HAVING COUNT(DISTINCT tag) = ?)`
		for _, t := range tags {
			args = append(args, t)
		}
		args = append(args, len(tags))
	}
	sqlStr += ` ORDER BY updated DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("index: title search: %w", err)
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var h models.SearchHit
		if err := rows.Scan(&h.ID, &h.Title, &h.Preview); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// tagFallback returns notes carrying every filter tag, by recency.
func (db *DB) tagFallback(tags []string, limit int) ([]models.SearchHit, error) {
	sqlStr := `SELECT id, title, preview FROM notes WHERE id IN (
		SELECT note_id FROM tags WHERE tag IN (` + placeholders(len(tags)) + `)
		GROUP BY note_id HAVING COUNT(DISTINCT tag) = ?)
		ORDER BY updated DESC, id LIMIT ?`
	args := make([]any, 0, len(tags)+2)
	for _, t := range tags {
		args = append(args, t)
	}
	args = append(args, len(tags), limit)

	rows, err := db.conn.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("index: tag search: %w", err)
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var h models.SearchHit
		if err := rows.Scan(&h.ID, &h.Title, &h.Preview); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
