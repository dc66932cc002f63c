package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"agrireport-backend-go/internal/config"
)

type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	KindDate
	KindBool
)

// PatchField describes one patchable attribute of an entity.
type PatchField struct {
	Column   string
	Kind     FieldKind
	Nullable bool
	// Lower folds text values to lower case before they are checked.
	Lower bool
	// Check runs after type coercion on non-nil values and returns a message
	// when the value is rejected.
	Check func(value interface{}) string
}

// PatchSpec maps request keys to patchable columns of a table. Keys
// without a field entry are ignored.
type PatchSpec struct {
	Table  string
	Fields map[string]PatchField
}

// Patch is a compiled UPDATE statement.
type Patch struct {
	SQL     string
	Args    []interface{}
	Columns []string
}

// Build turns a sparse request body into an UPDATE of table rows matching
// "<whereColumn> = whereValue". Unknown keys are dropped; known keys with
// values of the wrong type fail with a ValidationError listing every bad key.
func (s PatchSpec) Build(input map[string]interface{}, whereColumn string, whereValue interface{}) (Patch, error) {
	keys := make([]string, 0, len(input))
	for key := range input {
		if _, ok := s.Fields[key]; ok {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return Patch{}, ErrBadRequest("No updatable fields supplied")
	}
	sort.Strings(keys)

	fieldErrs := map[string]string{}
	sets := make([]string, 0, len(keys)+1)
	args := make([]interface{}, 0, len(keys)+1)
	columns := make([]string, 0, len(keys))
	for _, key := range keys {
		field := s.Fields[key]
		value, msg := coerce(field, input[key])
		if msg == "" && value != nil && field.Check != nil {
			msg = field.Check(value)
		}
		if msg != "" {
			fieldErrs[key] = msg
			continue
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", field.Column, len(args)))
		columns = append(columns, field.Column)
	}
	if len(fieldErrs) > 0 {
		return Patch{}, ErrValidation(fieldErrs)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, whereValue)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d", s.Table, strings.Join(sets, ", "), whereColumn, len(args))
	return Patch{SQL: query, Args: args, Columns: columns}, nil
}

func coerce(field PatchField, raw interface{}) (interface{}, string) {
	if raw == nil {
		if field.Nullable {
			return nil, ""
		}
		return nil, "cannot be empty"
	}
	switch field.Kind {
	case KindText:
		value, ok := raw.(string)
		if !ok {
			return nil, "must be a string"
		}
		value = strings.TrimSpace(value)
		if value == "" {
			if field.Nullable {
				return nil, ""
			}
			return nil, "cannot be empty"
		}
		if field.Lower {
			value = strings.ToLower(value)
		}
		return value, ""
	case KindNumber:
		value, ok := raw.(float64)
		if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, "must be a number"
		}
		return value, ""
	case KindBool:
		value, ok := raw.(bool)
		if !ok {
			return nil, "must be true or false"
		}
		return value, ""
	case KindDate:
		value, ok := raw.(string)
		if !ok {
			return nil, "must be a date in YYYY-MM-DD format"
		}
		if strings.TrimSpace(value) == "" && field.Nullable {
			return nil, ""
		}
		parsed, err := parseDate(value)
		if err != nil {
			return nil, "must be a date in YYYY-MM-DD format"
		}
		return parsed, ""
	}
	return nil, "is not supported"
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(raw))
}

func parseOptionalDate(raw *string) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	parsed, err := parseDate(*raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func nonNegative(value interface{}) string {
	if v, ok := value.(float64); ok && v < 0 {
		return "must not be negative"
	}
	return ""
}

func mobileNumber(value interface{}) string {
	if !phMobilePattern.MatchString(value.(string)) {
		return "must be a mobile number like 09XXXXXXXXX or +639XXXXXXXXX"
	}
	return ""
}

// genders matches the oneof list on RegisterRequest.Gender.
var genders = []string{"male", "female", "other"}

func gender(value interface{}) string {
	if !contains(genders, value.(string)) {
		return "must be one of: " + strings.Join(genders, ", ")
	}
	return ""
}

func text(column string) PatchField {
	return PatchField{Column: column, Kind: KindText, Nullable: true}
}

// FarmPatch lists the farm columns a farmer may edit.
func FarmPatch(region config.Region) PatchSpec {
	latCheck := func(value interface{}) string {
		if !region.ContainsLat(value.(float64)) {
			return "latitude is outside the service area"
		}
		return ""
	}
	lonCheck := func(value interface{}) string {
		if !region.ContainsLon(value.(float64)) {
			return "longitude is outside the service area"
		}
		return ""
	}
	return PatchSpec{
		Table: "farms",
		Fields: map[string]PatchField{
			"sitio":                    text("sitio"),
			"barangay":                 text("barangay"),
			"municipality":             text("municipality"),
			"province":                 text("province"),
			"latitude":                 {Column: "latitude", Kind: KindNumber, Nullable: true, Check: latCheck},
			"longitude":                {Column: "longitude", Kind: KindNumber, Nullable: true, Check: lonCheck},
			"farm_size_hectares":       {Column: "farm_size_hectares", Kind: KindNumber, Nullable: true, Check: nonNegative},
			"north_boundary":           text("north_boundary"),
			"south_boundary":           text("south_boundary"),
			"east_boundary":            text("east_boundary"),
			"west_boundary":            text("west_boundary"),
			"land_category":            text("land_category"),
			"tenurial_status":          text("tenurial_status"),
			"planting_method":          text("planting_method"),
			"crop_type":                text("crop_type"),
			"variety":                  text("variety"),
			"date_of_sowing":           {Column: "date_of_sowing", Kind: KindDate, Nullable: true},
			"date_of_planting":         {Column: "date_of_planting", Kind: KindDate, Nullable: true},
			"date_of_harvest":          {Column: "date_of_harvest", Kind: KindDate, Nullable: true},
			"cover_type":               text("cover_type"),
			"amount_of_cover":          {Column: "amount_of_cover", Kind: KindNumber, Nullable: true, Check: nonNegative},
			"premium":                  {Column: "premium", Kind: KindNumber, Nullable: true, Check: nonNegative},
			"beneficiary_name":         text("beneficiary_name"),
			"beneficiary_relationship": text("beneficiary_relationship"),
		},
	}
}

// FarmerPatch lists the profile columns a farmer may edit. rsbsa_id is
// deliberately absent.
func FarmerPatch() PatchSpec {
	return PatchSpec{
		Table: "farmers",
		Fields: map[string]PatchField{
			"first_name":           {Column: "first_name", Kind: KindText},
			"middle_name":          text("middle_name"),
			"last_name":            {Column: "last_name", Kind: KindText},
			"suffix":               text("suffix"),
			"date_of_birth":        {Column: "date_of_birth", Kind: KindDate, Nullable: true},
			"gender":               {Column: "gender", Kind: KindText, Nullable: true, Lower: true, Check: gender},
			"civil_status":         text("civil_status"),
			"contact_number":       {Column: "contact_number", Kind: KindText, Nullable: true, Check: mobileNumber},
			"spouse_name":          text("spouse_name"),
			"address_sitio":        text("address_sitio"),
			"address_barangay":     text("address_barangay"),
			"address_municipality": text("address_municipality"),
			"address_province":     text("address_province"),
		},
	}
}
