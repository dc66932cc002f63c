package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Username:      "juan_dc",
		Email:         strPtr("juan@example.com"),
		Password:      "password123",
		RsbsaID:       "12-63-01-001",
		FirstName:     "Juan",
		LastName:      "Dela Cruz",
		ContactNumber: strPtr("09171234567"),
		Farm: &FarmInput{
			Latitude:         floatPtr(6.12),
			Longitude:        floatPtr(124.65),
			FarmSizeHectares: floatPtr(1.5),
		},
	}
}

func TestValidate_AcceptsValidRegistration(t *testing.T) {
	req := validRegistration()
	assert.NoError(t, NewValidator(testRegion).Validate(&req))
}

func TestValidate_ReportsEveryField(t *testing.T) {
	req := validRegistration()
	req.Username = "a b"
	req.Password = "short"
	req.ContactNumber = strPtr("0917")
	req.Email = strPtr("not-an-email")
	req.Farm.Latitude = floatPtr(14.6)
	req.Farm.DateOfSowing = strPtr("2024/01/01")

	err := NewValidator(testRegion).Validate(&req)
	serr := requireCode(t, err, CodeValidation)
	assert.Equal(t, "may only contain letters, digits, dots and underscores", serr.Fields["username"])
	assert.Equal(t, "must be at least 8 characters", serr.Fields["password"])
	assert.Contains(t, serr.Fields["contact_number"], "09XXXXXXXXX")
	assert.Equal(t, "must be a valid email address", serr.Fields["email"])
	assert.Equal(t, "latitude is outside the service area", serr.Fields["farm.latitude"])
	assert.Contains(t, serr.Fields["farm.date_of_sowing"], "YYYY-MM-DD")
	assert.Len(t, serr.Fields, 6)
}

func TestValidate_ReportEnums(t *testing.T) {
	v := NewValidator(testRegion)
	assert.NoError(t, v.Validate(&StatusRequest{Status: "resolved"}))

	serr := requireCode(t, v.Validate(&StatusRequest{Status: "archived"}), CodeValidation)
	assert.Equal(t, "must be one of pending, verified, resolved, rejected", serr.Fields["status"])

	serr = requireCode(t, v.Validate(&SubmitReportRequest{Type: "locust"}), CodeValidation)
	assert.Contains(t, serr.Fields["type"], "pest, flood, drought, mix")
}

func TestMerge(t *testing.T) {
	err := Merge(nil, map[string]string{"details": "must be a JSON object"})
	serr := requireCode(t, err, CodeValidation)
	assert.Equal(t, map[string]string{"details": "must be a JSON object"}, serr.Fields)

	base := ErrValidation(map[string]string{"type": "is required"})
	serr = requireCode(t, Merge(base, map[string]string{"details": "bad", "type": "ignored"}), CodeValidation)
	assert.Equal(t, map[string]string{"type": "is required", "details": "bad"}, serr.Fields)

	assert.Nil(t, Merge(nil, nil))

	other := errors.New("boom")
	require.Equal(t, other, Merge(other, map[string]string{"x": "y"}))
}
