package main

import (
	"context"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var defaultBarangays = []string{
	"Poblacion", "Zone I", "Zone II", "Zone III", "Zone IV",
	"Carpenter Hill", "Morales", "San Isidro", "Santo Niño", "Concepcion",
}

var defaultPests = []string{
	"Rice black bug", "Armyworm", "Stem borer", "Brown planthopper", "Rodents", "Fall armyworm",
}

var defaultCrops = []string{
	"Rice", "Corn", "Coconut", "Banana", "Vegetables", "Coffee",
}

var defaultSettings = map[string]string{
	"municipality":        "Koronadal",
	"report_page_size":    "10",
	"support_contact":     "Municipal Agriculture Office",
	"photo_max_megabytes": "10",
}

// seedReference inserts the default lookup rows. Existing names are kept.
func seedReference(ctx context.Context, db *sqlx.DB, municipality string) (int64, error) {
	var inserted int64
	exec := func(query string, args ...interface{}) error {
		res, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		inserted += n
		return nil
	}

	for _, name := range defaultBarangays {
		if err := exec(`INSERT INTO barangays (id, name, municipality) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			uuid.NewString(), name, municipality); err != nil {
			return inserted, err
		}
	}
	for _, name := range defaultPests {
		if err := exec(`INSERT INTO pest_categories (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			uuid.NewString(), name); err != nil {
			return inserted, err
		}
	}
	for _, name := range defaultCrops {
		if err := exec(`INSERT INTO crop_types (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			uuid.NewString(), name); err != nil {
			return inserted, err
		}
	}
	for _, key := range slices.Sorted(maps.Keys(defaultSettings)) {
		value := defaultSettings[key]
		if key == "municipality" && municipality != "" {
			value = municipality
		}
		if err := exec(`INSERT INTO system_settings (key, value) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			key, value); err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}
