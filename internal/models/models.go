package models

import (
	"encoding/json"
	"time"
)

const (
	RoleFarmer = "farmer"
	RoleAdmin  = "admin"
)

type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        *string    `db:"email" json:"email,omitempty"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

type Farmer struct {
	ID                  string     `db:"id" json:"id"`
	UserID              string     `db:"user_id" json:"user_id"`
	RsbsaID             string     `db:"rsbsa_id" json:"rsbsa_id"`
	FirstName           string     `db:"first_name" json:"first_name"`
	MiddleName          *string    `db:"middle_name" json:"middle_name"`
	LastName            string     `db:"last_name" json:"last_name"`
	Suffix              *string    `db:"suffix" json:"suffix"`
	DateOfBirth         *time.Time `db:"date_of_birth" json:"date_of_birth"`
	Gender              *string    `db:"gender" json:"gender"`
	CivilStatus         *string    `db:"civil_status" json:"civil_status"`
	ContactNumber       *string    `db:"contact_number" json:"contact_number"`
	SpouseName          *string    `db:"spouse_name" json:"spouse_name"`
	AddressSitio        *string    `db:"address_sitio" json:"address_sitio"`
	AddressBarangay     *string    `db:"address_barangay" json:"address_barangay"`
	AddressMunicipality *string    `db:"address_municipality" json:"address_municipality"`
	AddressProvince     *string    `db:"address_province" json:"address_province"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// DisplayName is the farmer's full name without empty parts.
func (f Farmer) DisplayName() string {
	name := f.FirstName
	if f.MiddleName != nil && *f.MiddleName != "" {
		name += " " + *f.MiddleName
	}
	name += " " + f.LastName
	if f.Suffix != nil && *f.Suffix != "" {
		name += " " + *f.Suffix
	}
	return name
}

type Farm struct {
	ID                      string     `db:"id" json:"id"`
	FarmerID                string     `db:"farmer_id" json:"farmer_id"`
	Sitio                   *string    `db:"sitio" json:"sitio"`
	Barangay                *string    `db:"barangay" json:"barangay"`
	Municipality            *string    `db:"municipality" json:"municipality"`
	Province                *string    `db:"province" json:"province"`
	Latitude                *float64   `db:"latitude" json:"latitude"`
	Longitude               *float64   `db:"longitude" json:"longitude"`
	FarmSizeHectares        *float64   `db:"farm_size_hectares" json:"farm_size_hectares"`
	NorthBoundary           *string    `db:"north_boundary" json:"north_boundary"`
	SouthBoundary           *string    `db:"south_boundary" json:"south_boundary"`
	EastBoundary            *string    `db:"east_boundary" json:"east_boundary"`
	WestBoundary            *string    `db:"west_boundary" json:"west_boundary"`
	LandCategory            *string    `db:"land_category" json:"land_category"`
	TenurialStatus          *string    `db:"tenurial_status" json:"tenurial_status"`
	PlantingMethod          *string    `db:"planting_method" json:"planting_method"`
	CropType                *string    `db:"crop_type" json:"crop_type"`
	Variety                 *string    `db:"variety" json:"variety"`
	DateOfSowing            *time.Time `db:"date_of_sowing" json:"date_of_sowing"`
	DateOfPlanting          *time.Time `db:"date_of_planting" json:"date_of_planting"`
	DateOfHarvest           *time.Time `db:"date_of_harvest" json:"date_of_harvest"`
	CoverType               *string    `db:"cover_type" json:"cover_type"`
	AmountOfCover           *float64   `db:"amount_of_cover" json:"amount_of_cover"`
	Premium                 *float64   `db:"premium" json:"premium"`
	BeneficiaryName         *string    `db:"beneficiary_name" json:"beneficiary_name"`
	BeneficiaryRelationship *string    `db:"beneficiary_relationship" json:"beneficiary_relationship"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	ReportPending  = "pending"
	ReportVerified = "verified"
	ReportResolved = "resolved"
	ReportRejected = "rejected"
)

// Report omits the photo bytes; they are served separately.
type Report struct {
	ID         string          `db:"id" json:"id"`
	UserID     string          `db:"user_id" json:"user_id"`
	FarmID     *string         `db:"farm_id" json:"farm_id"`
	Type       string          `db:"type" json:"type"`
	Status     string          `db:"status" json:"status"`
	Details    json.RawMessage `db:"details" json:"details"`
	Barangay   *string         `db:"barangay" json:"barangay"`
	Latitude   *float64        `db:"latitude" json:"latitude"`
	Longitude  *float64        `db:"longitude" json:"longitude"`
	HasPhoto   bool            `db:"has_photo" json:"has_photo"`
	AdminNotes *string         `db:"admin_notes" json:"admin_notes"`
	VerifiedBy *string         `db:"verified_by" json:"verified_by"`
	VerifiedAt *time.Time      `db:"verified_at" json:"verified_at"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// ReportRow is a report joined with its reporter, used in admin listings.
type ReportRow struct {
	Report
	ReporterUsername string  `db:"reporter_username" json:"reporter_username"`
	ReporterName     *string `db:"reporter_name" json:"reporter_name"`
	RsbsaID          *string `db:"rsbsa_id" json:"rsbsa_id"`
}

type Notification struct {
	ID          string    `db:"id" json:"id"`
	UserID      *string   `db:"user_id" json:"user_id"`
	Type        string    `db:"type" json:"type"`
	Title       string    `db:"title" json:"title"`
	Message     string    `db:"message" json:"message"`
	ReferenceID *string   `db:"reference_id" json:"reference_id"`
	IsRead      bool      `db:"is_read" json:"is_read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type ReportComment struct {
	ID        string    `db:"id" json:"id"`
	ReportID  string    `db:"report_id" json:"report_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Username  string    `db:"username" json:"username"`
	Comment   string    `db:"comment" json:"comment"`
	IsAdmin   bool      `db:"is_admin" json:"is_admin"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ActivityLog struct {
	ID        string          `db:"id" json:"id"`
	UserID    *string         `db:"user_id" json:"user_id"`
	Username  *string         `db:"username" json:"username"`
	Action    string          `db:"action" json:"action"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata"`
	IPAddress *string         `db:"ip_address" json:"ip_address"`
	UserAgent *string         `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

type Barangay struct {
	ID           string  `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Municipality *string `db:"municipality" json:"municipality"`
}

// LookupItem covers pest categories and crop types.
type LookupItem struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
}

type News struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Body        string    `db:"body" json:"body"`
	AuthorID    *string   `db:"author_id" json:"author_id"`
	PublishedAt time.Time `db:"published_at" json:"published_at"`
}

// Page is the envelope for offset-paginated listings.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewPage[T any](items []T, page, limit, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Page[T]{Items: items, Page: page, Limit: limit, Total: total, TotalPages: pages}
}
