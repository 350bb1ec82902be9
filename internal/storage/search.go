package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// searchText performs BM25 full-text search using FTS5
func searchText(ctx context.Context, q querier, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		limit = 10
	}

	sqlQuery := `
		SELECT
			c.id AS chunk_id,
			f.file_path,
			bm25(chunks_fts) AS score
		FROM chunks_fts
		INNER JOIN chunks c ON chunks_fts.rowid = c.id
		INNER JOIN files f ON c.file_id = f.id
		WHERE chunks_fts MATCH ?
		AND f.project_id = ?
	`
	args := []any{sanitized, projectID}
	sqlQuery, args = applyTextFilters(sqlQuery, args, filters)

	// BM25 is lower-is-better; the glob filter runs after the query, so
	// fetch extra rows when one is set
	fetch := limit
	if filters != nil && filters.FilePattern != "" {
		fetch = limit * 10
	}
	sqlQuery += " ORDER BY score LIMIT ?"
	args = append(args, fetch)

	rows, err := q.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results, err := collectTextResults(rows, filters)
	if err != nil {
		return nil, err
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// applyTextFilters adds WHERE clause filters for text search
func applyTextFilters(query string, args []any, filters *SearchFilters) (string, []any) {
	if filters == nil {
		return query, args
	}
	query, args = inClause(query, args, "c.language", filters.Languages)
	query, args = inClause(query, args, "c.kind", filters.Kinds)
	return query, args
}

func inClause(query string, args []any, column string, values []string) (string, []any) {
	var kept []string
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return query, args
	}
	query += " AND " + column + " IN (" + strings.TrimSuffix(strings.Repeat("?,", len(kept)), ",") + ")"
	for _, v := range kept {
		args = append(args, v)
	}
	return query, args
}

// collectTextResults normalizes BM25 scores and applies the remaining filters
func collectTextResults(rows *sql.Rows, filters *SearchFilters) ([]TextResult, error) {
	results := make([]TextResult, 0)

	for rows.Next() {
		var result TextResult
		var bm25 float64
		if err := rows.Scan(&result.ChunkID, &result.FilePath, &bm25); err != nil {
			return nil, err
		}

		// BM25 scores are typically in [-50, 0]
		result.Score = 1.0 / (1.0 + math.Abs(bm25)/50.0)

		if filters != nil {
			if filters.MinRelevance > 0 && result.Score < filters.MinRelevance {
				continue
			}
			if filters.FilePattern != "" {
				ok, err := doublestar.Match(filters.FilePattern, result.FilePath)
				if err != nil {
					return nil, fmt.Errorf("invalid file pattern %q: %w", filters.FilePattern, err)
				}
				if !ok {
					continue
				}
			}
		}

		results = append(results, result)
	}

	return results, rows.Err()
}

var ftsOperatorPattern = regexp.MustCompile(`\b(AND|OR|NOT|NEAR)\b`)

// sanitizeFTSQuery turns free text into an FTS5 query of quoted terms so
// that operators and punctuation in the input are matched literally
func sanitizeFTSQuery(query string) string {
	query = ftsOperatorPattern.ReplaceAllStringFunc(query, strings.ToLower)
	var terms []string
	for _, term := range strings.Fields(query) {
		term = strings.ReplaceAll(term, `"`, `""`)
		if strings.Trim(term, `"`) == "" {
			continue
		}
		terms = append(terms, `"`+term+`"`)
	}
	return strings.Join(terms, " ")
}
