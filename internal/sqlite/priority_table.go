package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/openvitals/healthstore/pkg/types"
)

// The priority list is the per-category tie-break order of contributing
// apps. It is read during aggregate merges and mutated only by an
// explicit update.

// CurrentPriority returns the ordered app list for a category. When
// never explicitly set, the order defaults to first-ever contribution.
func (s *Store) CurrentPriority(category types.Category) ([]string, error) {
	var apps []string
	err := s.view(func(tx *sql.Tx) error {
		var blob string
		err := tx.QueryRow(
			"SELECT app_ids FROM priority_table WHERE category = ?", string(category)).Scan(&blob)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			apps, err = s.contributorsTx(tx, category)
			return err
		case err != nil:
			return fmt.Errorf("%w: reading priority: %v", types.ErrIOFailure, err)
		}
		if err := json.Unmarshal([]byte(blob), &apps); err != nil {
			return fmt.Errorf("%w: decoding priority list: %v", types.ErrIOFailure, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// UpdatePriority replaces the ordered app list for a category atomically.
// Every id must be a known contributor to the category.
func (s *Store) UpdatePriority(category types.Category, orderedApps []string) error {
	return s.RunInTransaction(func(tx *sql.Tx) error {
		known, err := s.contributorsTx(tx, category)
		if err != nil {
			return err
		}
		for _, app := range orderedApps {
			if !slices.Contains(known, app) {
				return fmt.Errorf("%w: %q is not a contributor to %s",
					types.ErrInvalidArgument, app, category)
			}
		}
		blob, err := json.Marshal(orderedApps)
		if err != nil {
			return fmt.Errorf("%w: encoding priority list: %v", types.ErrIOFailure, err)
		}
		_, err = tx.Exec(
			"INSERT INTO priority_table (category, app_ids) VALUES (?, ?) ON CONFLICT(category) DO UPDATE SET app_ids = excluded.app_ids",
			string(category), string(blob))
		if err != nil {
			return fmt.Errorf("%w: writing priority: %v", types.ErrIOFailure, err)
		}
		return nil
	})
}
