package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/openvitals/healthstore/pkg/types"
)

// App rows are created lazily on first contribution and never deleted
// while records reference them. Row ids double as the default priority
// order (first contributor first).

// ensureAppTx returns the app_info row id for a package, inserting it on
// first contribution.
func ensureAppTx(tx *sql.Tx, packageName string) (int64, error) {
	var rowID int64
	err := tx.QueryRow(
		"SELECT row_id FROM app_info_table WHERE package_name = ?", packageName).Scan(&rowID)
	if err == nil {
		return rowID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: looking up app: %v", types.ErrIOFailure, err)
	}
	res, err := tx.Exec(
		"INSERT INTO app_info_table (package_name, created_at_millis) VALUES (?, ?)",
		packageName, time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("%w: inserting app: %v", types.ErrIOFailure, err)
	}
	rowID, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: app row id: %v", types.ErrIOFailure, err)
	}
	return rowID, nil
}

// contributorsTx returns the package names that have contributed records
// of any kind in the category, ordered by first-ever contribution.
func (s *Store) contributorsTx(tx *sql.Tx, category types.Category) ([]string, error) {
	kinds := types.KindsInCategory(category)
	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w: unknown category %q", types.ErrInvalidArgument, category)
	}

	seen := make(map[string]bool)
	type contributor struct {
		name  string
		rowID int64
	}
	var all []contributor
	for _, kind := range kinds {
		h, err := s.helperFor(kind)
		if err != nil {
			return nil, err
		}
		rows, err := tx.Query(fmt.Sprintf(
			"SELECT DISTINCT a.row_id, a.package_name FROM %s r JOIN app_info_table a ON a.row_id = r.app_info_id",
			h.Table()))
		if err != nil {
			return nil, fmt.Errorf("%w: listing contributors: %v", types.ErrIOFailure, err)
		}
		for rows.Next() {
			var c contributor
			if err := rows.Scan(&c.rowID, &c.name); err != nil {
				rows.Close()
				return nil, fmt.Errorf("%w: scanning contributor: %v", types.ErrIOFailure, err)
			}
			if !seen[c.name] {
				seen[c.name] = true
				all = append(all, c)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: iterating contributors: %v", types.ErrIOFailure, err)
		}
		rows.Close()
	}

	// First-contribution order is the app_info insertion order.
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].rowID < all[j-1].rowID; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.name
	}
	return names, nil
}

// Apps returns every known contributing app.
func (s *Store) Apps() ([]types.AppInfo, error) {
	var apps []types.AppInfo
	err := s.view(func(tx *sql.Tx) error {
		rows, err := tx.Query("SELECT row_id, package_name FROM app_info_table ORDER BY row_id")
		if err != nil {
			return fmt.Errorf("%w: listing apps: %v", types.ErrIOFailure, err)
		}
		defer rows.Close()
		for rows.Next() {
			var a types.AppInfo
			if err := rows.Scan(&a.ID, &a.PackageName); err != nil {
				return fmt.Errorf("%w: scanning app: %v", types.ErrIOFailure, err)
			}
			apps = append(apps, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return apps, nil
}
