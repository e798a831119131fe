package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"loyalty-service/internal/platform"
)

// buildStatsUpsert renders the single-statement merge for a stats
// submission: additive columns accumulate server-side, overwrite columns
// replace. Doing the addition inside the statement keeps concurrent
// submissions for the same (merchant_id, from_date, till_date) key from
// losing increments. Column names come from the platform allowlists only.
func buildStatsUpsert(p platform.Platform, merchantID, fromDate, tillDate string, fields map[string]float64) (string, []interface{}) {
	cols := make([]string, 0, len(fields))
	for _, col := range p.StatsColumns() {
		if _, ok := fields[col]; ok {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)

	insertCols := []string{"merchant_id", "from_date", "till_date"}
	placeholders := []string{"$1", "$2", "$3"}
	args := []interface{}{merchantID, fromDate, tillDate}

	for i, col := range cols {
		insertCols = append(insertCols, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+4))
		args = append(args, fields[col])
	}

	setClauses := make([]string, 0, len(cols))
	for _, col := range cols {
		switch p.Classify(col) {
		case platform.MergeAdd:
			setClauses = append(setClauses,
				fmt.Sprintf("%[1]s = COALESCE(%[2]s.%[1]s, 0) + EXCLUDED.%[1]s", col, p.StatsTable))
		case platform.MergeOverwrite:
			setClauses = append(setClauses,
				fmt.Sprintf("%[1]s = EXCLUDED.%[1]s", col))
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s)
		ON CONFLICT (merchant_id, from_date, till_date) DO UPDATE SET
			%s
		RETURNING (xmax = 0) AS inserted`,
		p.StatsTable,
		strings.Join(insertCols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(setClauses, ",\n\t\t\t"))

	return query, args
}

// UpsertStats merges a cleaned stats submission into the platform's period
// row. Returns whether a new row was inserted (as opposed to an existing
// period being updated).
func (s *Store) UpsertStats(ctx context.Context, p platform.Platform, merchantID, fromDate, tillDate string, fields map[string]float64) (bool, error) {
	if len(fields) == 0 {
		return false, fmt.Errorf("no fields to upsert")
	}

	query, args := buildStatsUpsert(p, merchantID, fromDate, tillDate, fields)

	var inserted bool
	if err := s.db.GetContext(ctx, &inserted, query, args...); err != nil {
		return false, fmt.Errorf("failed to upsert %s stats: %w", p.Name, err)
	}
	return inserted, nil
}
