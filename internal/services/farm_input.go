package services

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
)

// FarmInput is the body accepted when a farm is created, either during
// registration or from the farm endpoints.
type FarmInput struct {
	Sitio                   *string  `json:"sitio"`
	Barangay                *string  `json:"barangay"`
	Municipality            *string  `json:"municipality"`
	Province                *string  `json:"province"`
	Latitude                *float64 `json:"latitude" validate:"omitempty,region_lat"`
	Longitude               *float64 `json:"longitude" validate:"omitempty,region_lon"`
	FarmSizeHectares        *float64 `json:"farm_size_hectares" validate:"omitempty,gte=0"`
	NorthBoundary           *string  `json:"north_boundary"`
	SouthBoundary           *string  `json:"south_boundary"`
	EastBoundary            *string  `json:"east_boundary"`
	WestBoundary            *string  `json:"west_boundary"`
	LandCategory            *string  `json:"land_category"`
	TenurialStatus          *string  `json:"tenurial_status"`
	PlantingMethod          *string  `json:"planting_method"`
	CropType                *string  `json:"crop_type"`
	Variety                 *string  `json:"variety"`
	DateOfSowing            *string  `json:"date_of_sowing" validate:"omitempty,ymd_date"`
	DateOfPlanting          *string  `json:"date_of_planting" validate:"omitempty,ymd_date"`
	DateOfHarvest           *string  `json:"date_of_harvest" validate:"omitempty,ymd_date"`
	CoverType               *string  `json:"cover_type"`
	AmountOfCover           *float64 `json:"amount_of_cover" validate:"omitempty,gte=0"`
	Premium                 *float64 `json:"premium" validate:"omitempty,gte=0"`
	BeneficiaryName         *string  `json:"beneficiary_name"`
	BeneficiaryRelationship *string  `json:"beneficiary_relationship"`
}

func insertFarm(ctx context.Context, ex sqlx.ExecerContext, id, farmerID string, in FarmInput) error {
	_, err := ex.ExecContext(ctx, `
INSERT INTO farms (
  id, farmer_id, sitio, barangay, municipality, province, latitude, longitude, farm_size_hectares,
  north_boundary, south_boundary, east_boundary, west_boundary, land_category, tenurial_status,
  planting_method, crop_type, variety, date_of_sowing, date_of_planting, date_of_harvest,
  cover_type, amount_of_cover, premium, beneficiary_name, beneficiary_relationship
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
`, id, farmerID, trimmed(in.Sitio), trimmed(in.Barangay), trimmed(in.Municipality), trimmed(in.Province),
		in.Latitude, in.Longitude, in.FarmSizeHectares,
		trimmed(in.NorthBoundary), trimmed(in.SouthBoundary), trimmed(in.EastBoundary), trimmed(in.WestBoundary),
		trimmed(in.LandCategory), trimmed(in.TenurialStatus), trimmed(in.PlantingMethod),
		trimmed(in.CropType), trimmed(in.Variety),
		parseOptionalDate(in.DateOfSowing), parseOptionalDate(in.DateOfPlanting), parseOptionalDate(in.DateOfHarvest),
		trimmed(in.CoverType), in.AmountOfCover, in.Premium,
		trimmed(in.BeneficiaryName), trimmed(in.BeneficiaryRelationship))
	return err
}

const farmColumns = `f.id, f.farmer_id, f.sitio, f.barangay, f.municipality, f.province, f.latitude, f.longitude,
  f.farm_size_hectares, f.north_boundary, f.south_boundary, f.east_boundary, f.west_boundary,
  f.land_category, f.tenurial_status, f.planting_method, f.crop_type, f.variety,
  f.date_of_sowing, f.date_of_planting, f.date_of_harvest, f.cover_type, f.amount_of_cover, f.premium,
  f.beneficiary_name, f.beneficiary_relationship, f.created_at, f.updated_at`

// trimmed turns blank optional strings into NULL.
func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
