package services

import (
	"context"
	"strings"
	"time"

	"agrireport-backend-go/internal/db"
	"agrireport-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type RegisterRequest struct {
	Username            string     `json:"username" validate:"required,min=3,max=50,username"`
	Email               *string    `json:"email" validate:"omitempty,email,max=254"`
	Password            string     `json:"password" validate:"required,min=8,max=128"`
	RsbsaID             string     `json:"rsbsa_id" validate:"required,min=4,max=40"`
	FirstName           string     `json:"first_name" validate:"required,max=100"`
	MiddleName          *string    `json:"middle_name" validate:"omitempty,max=100"`
	LastName            string     `json:"last_name" validate:"required,max=100"`
	Suffix              *string    `json:"suffix" validate:"omitempty,max=20"`
	DateOfBirth         *string    `json:"date_of_birth" validate:"omitempty,ymd_date"`
	Gender              *string    `json:"gender" validate:"omitempty,oneof=male female other"`
	CivilStatus         *string    `json:"civil_status" validate:"omitempty,max=30"`
	ContactNumber       *string    `json:"contact_number" validate:"omitempty,ph_mobile"`
	SpouseName          *string    `json:"spouse_name" validate:"omitempty,max=150"`
	AddressSitio        *string    `json:"address_sitio"`
	AddressBarangay     *string    `json:"address_barangay"`
	AddressMunicipality *string    `json:"address_municipality"`
	AddressProvince     *string    `json:"address_province"`
	Farm                *FarmInput `json:"farm"`
}

func (r *RegisterRequest) normalize() {
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
	r.RsbsaID = strings.TrimSpace(r.RsbsaID)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	if r.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &email
		if email == "" {
			r.Email = nil
		}
	}
	r.Gender = lowered(trimmed(r.Gender))
	r.ContactNumber = trimmed(r.ContactNumber)
	r.DateOfBirth = trimmed(r.DateOfBirth)
	if r.Farm == nil {
		r.Farm = &FarmInput{}
	}
	// The first farm inherits the home address when no location is given.
	if r.Farm.Sitio == nil && r.Farm.Barangay == nil && r.Farm.Municipality == nil && r.Farm.Province == nil {
		r.Farm.Sitio = r.AddressSitio
		r.Farm.Barangay = r.AddressBarangay
		r.Farm.Municipality = r.AddressMunicipality
		r.Farm.Province = r.AddressProvince
	}
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// identifier returns the first non-blank of identifier, username or email.
func (r LoginRequest) identifier() string {
	for _, candidate := range []string{r.Identifier, r.Username, r.Email} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return ""
}

// UserView is the redacted user returned to clients.
type UserView struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Role     string  `json:"role"`
	Name     string  `json:"name"`
	FarmerID *string `json:"farmer_id,omitempty"`
	RsbsaID  *string `json:"rsbsa_id,omitempty"`
}

type LoginResult struct {
	Token     string   `json:"token"`
	ExpiresAt int64    `json:"expires_at"`
	Role      string   `json:"role"`
	User      UserView `json:"user"`
}

type AdminCreateRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=50,username"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
}

// AccountService owns credentials: registration, login and administrator
// management of user rows.
type AccountService struct {
	DB        *sqlx.DB
	Tokens    TokenService
	Validator *Validator
	Activity  *ActivityLog
	Log       *zap.Logger
}

// Register creates the user, farmer and first farm rows in one transaction
// and returns the new user id.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest, meta RequestMeta) (string, error) {
	req.normalize()
	if err := s.Validator.Validate(&req); err != nil {
		return "", err
	}
	hash, err := s.Tokens.HashPassword(req.Password)
	if err != nil {
		return "", WrapError(err, "hash password")
	}

	userID := uuid.NewString()
	farmerID := uuid.NewString()
	err = db.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO users (id, username, email, password_hash, role, is_active)
VALUES ($1, $2, $3, $4, $5, TRUE)
`, userID, req.Username, req.Email, hash, models.RoleFarmer); err != nil {
			return conflictFromDB(err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO farmers (
  id, user_id, rsbsa_id, first_name, middle_name, last_name, suffix, date_of_birth, gender,
  civil_status, contact_number, spouse_name, address_sitio, address_barangay, address_municipality, address_province
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
`, farmerID, userID, req.RsbsaID, req.FirstName, trimmed(req.MiddleName), req.LastName, trimmed(req.Suffix),
			parseOptionalDate(req.DateOfBirth), req.Gender, trimmed(req.CivilStatus), req.ContactNumber,
			trimmed(req.SpouseName), trimmed(req.AddressSitio), trimmed(req.AddressBarangay),
			trimmed(req.AddressMunicipality), trimmed(req.AddressProvince)); err != nil {
			return conflictFromDB(err)
		}
		return insertFarm(ctx, tx, uuid.NewString(), farmerID, *req.Farm)
	})
	if err != nil {
		if _, ok := AsServiceError(err); ok {
			return "", err
		}
		return "", WrapError(err, "register farmer")
	}

	s.Activity.Record(ctx, userID, ActionRegister, meta, map[string]interface{}{"rsbsa_id": req.RsbsaID})
	return userID, nil
}

type loginRow struct {
	models.User
	FarmerID  *string `db:"farmer_id"`
	RsbsaID   *string `db:"rsbsa_id"`
	FirstName *string `db:"first_name"`
	LastName  *string `db:"last_name"`
}

func (r loginRow) view() UserView {
	name := r.Username
	if r.FirstName != nil && r.LastName != nil {
		name = strings.TrimSpace(*r.FirstName + " " + *r.LastName)
	}
	return UserView{
		ID:       r.ID,
		Username: r.Username,
		Email:    r.Email,
		Role:     r.Role,
		Name:     name,
		FarmerID: r.FarmerID,
		RsbsaID:  r.RsbsaID,
	}
}

// Login resolves the identifier against username, email and RSBSA id of
// active users. Every failure is reported as InvalidCredentials.
func (s *AccountService) Login(ctx context.Context, req LoginRequest, meta RequestMeta) (LoginResult, error) {
	identifier := req.identifier()
	fields := map[string]string{}
	if identifier == "" {
		fields["identifier"] = "is required"
	}
	if req.Password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		return LoginResult{}, ErrValidation(fields)
	}

	rows := []loginRow{}
	err := s.DB.SelectContext(ctx, &rows, `
SELECT u.id, u.username, u.email, u.password_hash, u.role, u.is_active, u.last_login_at, u.created_at, u.updated_at,
       f.id AS farmer_id, f.rsbsa_id, f.first_name, f.last_name
FROM users u
LEFT JOIN farmers f ON f.user_id = u.id
WHERE u.is_active = TRUE
  AND (lower(u.username) = lower($1) OR lower(u.email) = lower($1) OR f.rsbsa_id = $1)
LIMIT 2
`, identifier)
	if err != nil {
		return LoginResult{}, WrapError(err, "lookup account")
	}
	if len(rows) != 1 {
		s.Tokens.VerifyPassword(req.Password, s.Tokens.dummyHash())
		return LoginResult{}, ErrInvalidCredentials()
	}
	account := rows[0]
	if !s.Tokens.VerifyPassword(req.Password, account.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials()
	}

	view := account.view()
	token, exp, err := s.Tokens.IssueToken(Claims{UserID: account.ID, Role: account.Role, Name: view.Name})
	if err != nil {
		return LoginResult{}, WrapError(err, "issue token")
	}
	if _, err := s.DB.ExecContext(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, time.Now().UTC(), account.ID); err != nil {
		s.Log.Warn("last login not updated", zap.String("user_id", account.ID), zap.Error(err))
	}
	s.Activity.Record(ctx, account.ID, ActionLogin, meta, nil)
	return LoginResult{Token: token, ExpiresAt: exp, Role: account.Role, User: view}, nil
}

// CreateAdmin provisions another administrator account.
func (s *AccountService) CreateAdmin(ctx context.Context, actor Claims, req AdminCreateRequest, meta RequestMeta) (UserView, error) {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &email
		if email == "" {
			req.Email = nil
		}
	}
	if err := s.Validator.Validate(&req); err != nil {
		return UserView{}, err
	}
	hash, err := s.Tokens.HashPassword(req.Password)
	if err != nil {
		return UserView{}, WrapError(err, "hash password")
	}
	id := uuid.NewString()
	if _, err := s.DB.ExecContext(ctx, `
INSERT INTO users (id, username, email, password_hash, role, is_active)
VALUES ($1, $2, $3, $4, $5, TRUE)
`, id, req.Username, req.Email, hash, models.RoleAdmin); err != nil {
		if conflict, ok := AsServiceError(conflictFromDB(err)); ok {
			return UserView{}, conflict
		}
		return UserView{}, WrapError(err, "create admin")
	}
	s.Activity.Record(ctx, actor.UserID, ActionUserProvision, meta, map[string]interface{}{"user_id": id, "username": req.Username})
	return UserView{ID: id, Username: req.Username, Email: req.Email, Role: models.RoleAdmin, Name: req.Username}, nil
}

// SetActive enables or disables login for a user other than the actor.
func (s *AccountService) SetActive(ctx context.Context, actor Claims, userID string, active bool, meta RequestMeta) error {
	if userID == actor.UserID {
		return ErrBadRequest("You cannot change your own account status")
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET is_active = $1, updated_at = now() WHERE id = $2`, active, userID)
	if err != nil {
		return WrapError(err, "update user status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound("User not found")
	}
	s.Activity.Record(ctx, actor.UserID, ActionUserToggle, meta, map[string]interface{}{"user_id": userID, "active": active})
	return nil
}

// DeleteUser removes a user; farmer, farm, report and notification rows go
// with it.
func (s *AccountService) DeleteUser(ctx context.Context, actor Claims, userID string, meta RequestMeta) error {
	if userID == actor.UserID {
		return ErrBadRequest("You cannot delete your own account")
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return WrapError(err, "delete user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound("User not found")
	}
	s.Activity.Record(ctx, actor.UserID, ActionUserDelete, meta, map[string]interface{}{"user_id": userID})
	return nil
}

func lowered(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.ToLower(*value)
	return &v
}
