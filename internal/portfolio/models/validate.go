package models

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/biter777/countries"
	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/nyaruka/phonenumbers"
)

// DateLayout is the wire format of every date field.
const DateLayout = "2006-01-02"

// DefaultPhoneRegion is assumed for numbers written without a country code.
const DefaultPhoneRegion = "GB"

func required(v *e.ValidationError, field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "This field is required.")
		return false
	}
	return true
}

func maxLen(v *e.ValidationError, field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		v.Add(field, fmt.Sprintf("Ensure this value has at most %d characters.", limit))
	}
}

func matches(v *e.ValidationError, field, value string, re *regexp.Regexp, msg string) {
	if value != "" && !re.MatchString(value) {
		v.Add(field, msg)
	}
}

func validURL(v *e.ValidationError, field, value string) {
	if value == "" {
		return
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.Add(field, "Enter a valid URL.")
	}
}

func validEmail(v *e.ValidationError, field, value string) {
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.Add(field, "Enter a valid email address.")
	}
}

// NormalizePhone parses raw against DefaultPhoneRegion and returns it in
// E.164 form. It reports false for numbers that are not assigned.
func NormalizePhone(raw string) (string, bool) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

// NormalizeCountry returns the ISO 3166-1 alpha-2 code for raw, which may
// be given in any case. It reports false for unassigned codes.
func NormalizeCountry(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 2 {
		return "", false
	}
	c := countries.ByName(code)
	if c == countries.Unknown || !c.IsValid() || c.Alpha2() != code {
		return "", false
	}
	return code, true
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a DateLayout string. Empty input yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
