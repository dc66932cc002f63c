package services

import (
	"context"
	"encoding/json"
	"strings"

	"agrireport-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LookupKind names an admin-managed lookup table.
type LookupKind string

const (
	LookupPests LookupKind = "pest-types"
	LookupCrops LookupKind = "crop-types"
)

var lookupTables = map[LookupKind]string{
	LookupPests: "pest_categories",
	LookupCrops: "crop_types",
}

type BarangayRequest struct {
	Name         string  `json:"name" validate:"required,max=100"`
	Municipality *string `json:"municipality" validate:"omitempty,max=100"`
}

type LookupRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type SettingRequest struct {
	Value string `json:"value" validate:"required,max=2000"`
}

type NewsRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"required"`
}

// Options bundles everything a client form needs in one call.
type Options struct {
	Barangays      []models.Barangay   `json:"barangays"`
	PestTypes      []models.LookupItem `json:"pest_types"`
	CropTypes      []models.LookupItem `json:"crop_types"`
	ReportTypes    []string            `json:"report_types"`
	ReportStatuses []string            `json:"report_statuses"`
	Settings       map[string]string   `json:"settings"`
}

type ReferenceService struct {
	DB        *sqlx.DB
	Cache     Cache
	Validator *Validator
	Activity  *ActivityLog
}

// cached serves key from the cache or loads it and stores the result.
func cached[T any](ctx context.Context, cache Cache, key string, load func() (T, error)) (T, error) {
	var out T
	if raw, ok := cache.Get(ctx, key); ok && json.Unmarshal(raw, &out) == nil {
		return out, nil
	}
	out, err := load()
	if err != nil {
		return out, err
	}
	if raw, err := json.Marshal(out); err == nil {
		cache.Set(ctx, key, raw)
	}
	return out, nil
}

func (s *ReferenceService) Barangays(ctx context.Context) ([]models.Barangay, error) {
	return cached(ctx, s.Cache, "barangays", func() ([]models.Barangay, error) {
		items := []models.Barangay{}
		err := s.DB.SelectContext(ctx, &items, `SELECT id, name, municipality FROM barangays ORDER BY name`)
		return items, err
	})
}

func (s *ReferenceService) Lookup(ctx context.Context, kind LookupKind) ([]models.LookupItem, error) {
	table, ok := lookupTables[kind]
	if !ok {
		return nil, ErrNotFound("Unknown lookup")
	}
	return cached(ctx, s.Cache, string(kind), func() ([]models.LookupItem, error) {
		items := []models.LookupItem{}
		err := s.DB.SelectContext(ctx, &items, `SELECT id, name, description FROM `+table+` ORDER BY name`)
		return items, err
	})
}

func (s *ReferenceService) Settings(ctx context.Context) (map[string]string, error) {
	return cached(ctx, s.Cache, "settings", func() (map[string]string, error) {
		rows := []struct {
			Key   string `db:"key"`
			Value string `db:"value"`
		}{}
		if err := s.DB.SelectContext(ctx, &rows, `SELECT key, value FROM system_settings ORDER BY key`); err != nil {
			return nil, err
		}
		out := make(map[string]string, len(rows))
		for _, row := range rows {
			out[row.Key] = row.Value
		}
		return out, nil
	})
}

func (s *ReferenceService) Options(ctx context.Context) (Options, error) {
	var opts Options
	var err error
	if opts.Barangays, err = s.Barangays(ctx); err != nil {
		return Options{}, err
	}
	if opts.PestTypes, err = s.Lookup(ctx, LookupPests); err != nil {
		return Options{}, err
	}
	if opts.CropTypes, err = s.Lookup(ctx, LookupCrops); err != nil {
		return Options{}, err
	}
	if opts.Settings, err = s.Settings(ctx); err != nil {
		return Options{}, err
	}
	opts.ReportTypes = ReportTypes
	opts.ReportStatuses = ReportStatuses
	return opts, nil
}

func (s *ReferenceService) News(ctx context.Context, limit int) ([]models.News, error) {
	items := []models.News{}
	err := s.DB.SelectContext(ctx, &items, `
SELECT id, title, body, author_id, published_at
FROM news
ORDER BY published_at DESC
LIMIT $1
`, limit)
	return items, err
}

func (s *ReferenceService) CreateBarangay(ctx context.Context, actor Claims, req BarangayRequest, meta RequestMeta) (models.Barangay, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.Validator.Validate(&req); err != nil {
		return models.Barangay{}, err
	}
	item := models.Barangay{ID: uuid.NewString(), Name: req.Name, Municipality: trimmed(req.Municipality)}
	if _, err := s.DB.ExecContext(ctx, `INSERT INTO barangays (id, name, municipality) VALUES ($1, $2, $3)`,
		item.ID, item.Name, item.Municipality); err != nil {
		return models.Barangay{}, referenceWriteError(err)
	}
	s.Activity.Record(ctx, actor.UserID, ActionReferenceWrite, meta, map[string]interface{}{"barangay": item.Name})
	return item, nil
}

func (s *ReferenceService) DeleteBarangay(ctx context.Context, actor Claims, id string, meta RequestMeta) error {
	return s.deleteRow(ctx, actor, "barangays", id, meta)
}

func (s *ReferenceService) CreateLookup(ctx context.Context, actor Claims, kind LookupKind, req LookupRequest, meta RequestMeta) (models.LookupItem, error) {
	table, ok := lookupTables[kind]
	if !ok {
		return models.LookupItem{}, ErrNotFound("Unknown lookup")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.Validator.Validate(&req); err != nil {
		return models.LookupItem{}, err
	}
	item := models.LookupItem{ID: uuid.NewString(), Name: req.Name, Description: trimmed(req.Description)}
	if _, err := s.DB.ExecContext(ctx, `INSERT INTO `+table+` (id, name, description) VALUES ($1, $2, $3)`,
		item.ID, item.Name, item.Description); err != nil {
		return models.LookupItem{}, referenceWriteError(err)
	}
	s.Activity.Record(ctx, actor.UserID, ActionReferenceWrite, meta, map[string]interface{}{string(kind): item.Name})
	return item, nil
}

func (s *ReferenceService) DeleteLookup(ctx context.Context, actor Claims, kind LookupKind, id string, meta RequestMeta) error {
	table, ok := lookupTables[kind]
	if !ok {
		return ErrNotFound("Unknown lookup")
	}
	return s.deleteRow(ctx, actor, table, id, meta)
}

func (s *ReferenceService) deleteRow(ctx context.Context, actor Claims, table, id string, meta RequestMeta) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return WrapError(err, "delete "+table)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound("Entry not found")
	}
	s.Activity.Record(ctx, actor.UserID, ActionReferenceWrite, meta, map[string]interface{}{"deleted": table, "id": id})
	return nil
}

func (s *ReferenceService) PutSetting(ctx context.Context, actor Claims, key string, req SettingRequest, meta RequestMeta) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrValidation(map[string]string{"key": "is required"})
	}
	if err := s.Validator.Validate(&req); err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, `
INSERT INTO system_settings (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`, key, req.Value); err != nil {
		return WrapError(err, "save setting")
	}
	s.Activity.Record(ctx, actor.UserID, ActionReferenceWrite, meta, map[string]interface{}{"setting": key})
	return nil
}

func (s *ReferenceService) CreateNews(ctx context.Context, actor Claims, req NewsRequest, meta RequestMeta) (models.News, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)
	if err := s.Validator.Validate(&req); err != nil {
		return models.News{}, err
	}
	var item models.News
	err := s.DB.GetContext(ctx, &item, `
INSERT INTO news (id, title, body, author_id) VALUES ($1, $2, $3, $4)
RETURNING id, title, body, author_id, published_at
`, uuid.NewString(), req.Title, req.Body, actor.UserID)
	if err != nil {
		return models.News{}, WrapError(err, "insert news")
	}
	s.Activity.Record(ctx, actor.UserID, ActionReferenceWrite, meta, map[string]interface{}{"news_id": item.ID})
	return item, nil
}

func referenceWriteError(err error) error {
	if serr, ok := AsServiceError(conflictFromDB(err)); ok {
		return serr
	}
	return WrapError(err, "write reference data")
}
