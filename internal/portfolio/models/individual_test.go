package models

import (
	"testing"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validIndividualInput() IndividualInput {
	return IndividualInput{
		Name:          "Jane Roe",
		Email:         "jane@example.com",
		PrimaryNumber: "020 7946 0958",
		LinkedInLink:  "https://linkedin.com/in/jane",
	}
}

func TestNewIndividual(t *testing.T) {
	ind, err := NewIndividual(validIndividualInput())
	require.NoError(t, err)

	assert.Equal(t, ContentTypeIndividual, ind.ContentType)
	assert.Equal(t, "+442079460958", ind.PrimaryNumber)
	assert.Empty(t, ind.SecondaryNumber)
}

func TestIndividualInputValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*IndividualInput)
		field  string
	}{
		{"missing name", func(in *IndividualInput) { in.Name = " " }, "name"},
		{"bad email", func(in *IndividualInput) { in.Email = "jane" }, "email"},
		{"bad link", func(in *IndividualInput) { in.CrunchbaseLink = "crunchbase" }, "crunchbase_link"},
		{"bad phone", func(in *IndividualInput) { in.PrimaryNumber = "call me" }, "primary_number"},
		{"bad secondary phone", func(in *IndividualInput) { in.SecondaryNumber = "12" }, "secondary_number"},
		{"unassigned phone", func(in *IndividualInput) { in.PrimaryNumber = "0000000" }, "primary_number"},
		{"phone too short for region", func(in *IndividualInput) { in.PrimaryNumber = "+44 20 7946" }, "primary_number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validIndividualInput()
			tt.mutate(&in)
			v, ok := e.AsValidation(in.Validate())
			require.True(t, ok)
			assert.True(t, v.Has(tt.field), "got %v", v.Fields)
		})
	}
}

func TestAddressInputBuild(t *testing.T) {
	a, err := AddressInput{AddressLine1: "1 Strand", PostalCode: "WC2R 2LS", City: "London", Country: "gb"}.Build()
	require.NoError(t, err)
	assert.Equal(t, "GB", a.Country)

	for _, country := range []string{"GBR", "ZZ", "X1", ""} {
		_, err = AddressInput{AddressLine1: "1 Strand", PostalCode: "WC2R 2LS", City: "London", Country: country}.Build()
		v, ok := e.AsValidation(err)
		require.True(t, ok, country)
		assert.True(t, v.Has("country"), country)
	}
	assert.True(t, AddressInput{}.Empty())
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"+44 7400 123456", "+447400123456", true},
		{"07400 123456", "+447400123456", true},
		{"+1 201-555-0123", "+12015550123", true},
		{"0000000", "", false},
		{"+999 1234567", "", false},
		{"call me", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizePhone(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCountry(t *testing.T) {
	got, ok := NormalizeCountry(" de ")
	require.True(t, ok)
	assert.Equal(t, "DE", got)

	for _, raw := range []string{"ZZ", "QQ", "GBR", "Germany"} {
		_, ok := NormalizeCountry(raw)
		assert.False(t, ok, raw)
	}
}

func TestExperienceInputBuild(t *testing.T) {
	x, err := ExperienceInput{CompanyName: "Acme", WorkTitle: "CTO", StartYear: 2010, EndYear: 2015}.Build()
	require.NoError(t, err)
	assert.Equal(t, "5", x.Duration)

	x, err = ExperienceInput{CompanyName: "Acme", WorkTitle: "CEO", StartYear: 2016}.Build()
	require.NoError(t, err)
	assert.Equal(t, DefaultDuration, x.Duration)

	_, err = ExperienceInput{CompanyName: "Acme", WorkTitle: "CTO", StartYear: 2015, EndYear: 2010}.Build()
	v, ok := e.AsValidation(err)
	require.True(t, ok)
	assert.True(t, v.Has("end_year"))
}
