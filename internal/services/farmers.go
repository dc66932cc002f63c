package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"agrireport-backend-go/internal/config"
	"agrireport-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type FarmerService struct {
	DB        *sqlx.DB
	Validator *Validator
	Region    config.Region
	Activity  *ActivityLog
}

type MeView struct {
	User      UserView       `json:"user"`
	Farmer    *models.Farmer `json:"farmer"`
	FarmCount int            `json:"farm_count"`
}

type FarmerProfile struct {
	User   UserView       `json:"user"`
	Farmer *models.Farmer `json:"farmer"`
	Farms  []models.Farm  `json:"farms"`
}

// FarmerSummary is one row of the administrator farmer directory.
type FarmerSummary struct {
	models.Farmer
	Username  string  `db:"username" json:"username"`
	Email     *string `db:"email" json:"email"`
	IsActive  bool    `db:"is_active" json:"is_active"`
	FarmCount int     `db:"farm_count" json:"farm_count"`
}

const farmerColumns = `fr.id, fr.user_id, fr.rsbsa_id, fr.first_name, fr.middle_name, fr.last_name, fr.suffix,
  fr.date_of_birth, fr.gender, fr.civil_status, fr.contact_number, fr.spouse_name, fr.address_sitio,
  fr.address_barangay, fr.address_municipality, fr.address_province, fr.created_at, fr.updated_at`

func (s *FarmerService) user(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := s.DB.GetContext(ctx, &user, `
SELECT id, username, email, password_hash, role, is_active, last_login_at, created_at, updated_at
FROM users WHERE id = $1
`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound("User not found")
	}
	return user, err
}

func (s *FarmerService) farmerByUser(ctx context.Context, userID string) (*models.Farmer, error) {
	var farmer models.Farmer
	err := s.DB.GetContext(ctx, &farmer, `SELECT `+farmerColumns+` FROM farmers fr WHERE fr.user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &farmer, nil
}

func (s *FarmerService) farms(ctx context.Context, farmerID string) ([]models.Farm, error) {
	farms := []models.Farm{}
	err := s.DB.SelectContext(ctx, &farms, `SELECT `+farmColumns+` FROM farms f WHERE f.farmer_id = $1 ORDER BY f.created_at`, farmerID)
	return farms, err
}

func viewOf(user models.User, farmer *models.Farmer) UserView {
	view := UserView{ID: user.ID, Username: user.Username, Email: user.Email, Role: user.Role, Name: user.Username}
	if farmer != nil {
		view.Name = farmer.DisplayName()
		view.FarmerID = &farmer.ID
		view.RsbsaID = &farmer.RsbsaID
	}
	return view
}

// Me returns the signed-in user with their farmer row, if any.
func (s *FarmerService) Me(ctx context.Context, userID string) (MeView, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return MeView{}, err
	}
	farmer, err := s.farmerByUser(ctx, userID)
	if err != nil {
		return MeView{}, err
	}
	view := MeView{User: viewOf(user, farmer), Farmer: farmer}
	if farmer != nil {
		if err := s.DB.GetContext(ctx, &view.FarmCount, `SELECT count(*) FROM farms WHERE farmer_id = $1`, farmer.ID); err != nil {
			return MeView{}, err
		}
	}
	return view, nil
}

func (s *FarmerService) Profile(ctx context.Context, userID string) (FarmerProfile, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return FarmerProfile{}, err
	}
	farmer, err := s.farmerByUser(ctx, userID)
	if err != nil {
		return FarmerProfile{}, err
	}
	if farmer == nil {
		return FarmerProfile{}, ErrNotFound("Farmer profile not found")
	}
	farms, err := s.farms(ctx, farmer.ID)
	if err != nil {
		return FarmerProfile{}, err
	}
	return FarmerProfile{User: viewOf(user, farmer), Farmer: farmer, Farms: farms}, nil
}

// UpdateProfile applies an allow-listed partial update to the caller's
// farmer row.
func (s *FarmerService) UpdateProfile(ctx context.Context, actor Claims, input map[string]interface{}, meta RequestMeta) (FarmerProfile, error) {
	patch, err := FarmerPatch().Build(input, "user_id", actor.UserID)
	if err != nil {
		return FarmerProfile{}, err
	}
	res, err := s.DB.ExecContext(ctx, patch.SQL, patch.Args...)
	if err != nil {
		return FarmerProfile{}, WrapError(err, "update profile")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return FarmerProfile{}, ErrNotFound("Farmer profile not found")
	}
	s.Activity.Record(ctx, actor.UserID, ActionProfileUpdate, meta, map[string]interface{}{"fields": patch.Columns})
	return s.Profile(ctx, actor.UserID)
}

func (s *FarmerService) ListFarms(ctx context.Context, userID string) ([]models.Farm, error) {
	farms := []models.Farm{}
	err := s.DB.SelectContext(ctx, &farms, `
SELECT `+farmColumns+`
FROM farms f
JOIN farmers fr ON fr.id = f.farmer_id
WHERE fr.user_id = $1
ORDER BY f.created_at
`, userID)
	return farms, err
}

func (s *FarmerService) farm(ctx context.Context, farmID string) (models.Farm, error) {
	var farm models.Farm
	err := s.DB.GetContext(ctx, &farm, `SELECT `+farmColumns+` FROM farms f WHERE f.id = $1`, farmID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Farm{}, ErrNotFound("Farm not found")
	}
	return farm, err
}

func (s *FarmerService) AddFarm(ctx context.Context, actor Claims, in FarmInput, meta RequestMeta) (models.Farm, error) {
	if err := s.Validator.Validate(&in); err != nil {
		return models.Farm{}, err
	}
	farmer, err := s.farmerByUser(ctx, actor.UserID)
	if err != nil {
		return models.Farm{}, err
	}
	if farmer == nil {
		return models.Farm{}, ErrForbidden("Only farmers can add farms")
	}
	id := uuid.NewString()
	if err := insertFarm(ctx, s.DB, id, farmer.ID, in); err != nil {
		return models.Farm{}, WrapError(err, "insert farm")
	}
	s.Activity.Record(ctx, actor.UserID, ActionFarmAdd, meta, map[string]interface{}{"farm_id": id})
	return s.farm(ctx, id)
}

// authorizeFarm returns NotFound for an unknown farm and Forbidden when the
// farm belongs to another farmer.
func (s *FarmerService) authorizeFarm(ctx context.Context, userID, farmID string) error {
	var owner string
	err := s.DB.GetContext(ctx, &owner, `
SELECT fr.user_id
FROM farms f
JOIN farmers fr ON fr.id = f.farmer_id
WHERE f.id = $1
`, farmID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound("Farm not found")
	}
	if err != nil {
		return WrapError(err, "load farm owner")
	}
	if owner != userID {
		return ErrForbidden("You do not own this farm")
	}
	return nil
}

func (s *FarmerService) UpdateFarm(ctx context.Context, actor Claims, farmID string, input map[string]interface{}, meta RequestMeta) (models.Farm, error) {
	if err := s.authorizeFarm(ctx, actor.UserID, farmID); err != nil {
		return models.Farm{}, err
	}
	patch, err := FarmPatch(s.Region).Build(input, "id", farmID)
	if err != nil {
		return models.Farm{}, err
	}
	if _, err := s.DB.ExecContext(ctx, patch.SQL, patch.Args...); err != nil {
		return models.Farm{}, WrapError(err, "update farm")
	}
	s.Activity.Record(ctx, actor.UserID, ActionFarmUpdate, meta, map[string]interface{}{"farm_id": farmID, "fields": patch.Columns})
	return s.farm(ctx, farmID)
}

func (s *FarmerService) DeleteFarm(ctx context.Context, actor Claims, farmID string, meta RequestMeta) error {
	if err := s.authorizeFarm(ctx, actor.UserID, farmID); err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM farms WHERE id = $1`, farmID); err != nil {
		return WrapError(err, "delete farm")
	}
	s.Activity.Record(ctx, actor.UserID, ActionFarmDelete, meta, map[string]interface{}{"farm_id": farmID})
	return nil
}

// ListFarmers pages through farmers, optionally matching search against
// name, RSBSA id or username.
func (s *FarmerService) ListFarmers(ctx context.Context, search string, page, limit int) (models.Page[FarmerSummary], error) {
	page, limit = Paging(page, limit, DefaultPageSize, MaxPageSize)
	where := "1=1"
	args := []interface{}{}
	if term := strings.TrimSpace(search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		where = `(lower(fr.first_name) LIKE $1 OR lower(fr.last_name) LIKE $1 OR lower(fr.rsbsa_id) LIKE $1 OR lower(u.username) LIKE $1)`
	}
	var total int
	if err := s.DB.GetContext(ctx, &total, `
SELECT count(*) FROM farmers fr JOIN users u ON u.id = fr.user_id WHERE `+where, args...); err != nil {
		return models.Page[FarmerSummary]{}, err
	}
	items := []FarmerSummary{}
	query := fmt.Sprintf(`
SELECT %s, u.username, u.email, u.is_active,
       (SELECT count(*) FROM farms f WHERE f.farmer_id = fr.id) AS farm_count
FROM farmers fr
JOIN users u ON u.id = fr.user_id
WHERE %s
ORDER BY fr.last_name, fr.first_name
LIMIT $%d OFFSET $%d
`, farmerColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)
	if err := s.DB.SelectContext(ctx, &items, query, args...); err != nil {
		return models.Page[FarmerSummary]{}, err
	}
	return models.NewPage(items, page, limit, total), nil
}

// FarmerByID returns a farmer with their account and farms for administrators.
func (s *FarmerService) FarmerByID(ctx context.Context, farmerID string) (FarmerProfile, error) {
	var farmer models.Farmer
	err := s.DB.GetContext(ctx, &farmer, `SELECT `+farmerColumns+` FROM farmers fr WHERE fr.id = $1`, farmerID)
	if errors.Is(err, sql.ErrNoRows) {
		return FarmerProfile{}, ErrNotFound("Farmer not found")
	}
	if err != nil {
		return FarmerProfile{}, err
	}
	user, err := s.user(ctx, farmer.UserID)
	if err != nil {
		return FarmerProfile{}, err
	}
	farms, err := s.farms(ctx, farmer.ID)
	if err != nil {
		return FarmerProfile{}, err
	}
	return FarmerProfile{User: viewOf(user, &farmer), Farmer: &farmer, Farms: farms}, nil
}
