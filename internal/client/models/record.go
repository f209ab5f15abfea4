// Package models defines the records, users and result pages exchanged with
// the gate-log service.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type InOutStatus string

const (
	StatusIn  InOutStatus = "IN"
	StatusOut InOutStatus = "OUT"
)

const MaxReferralIDLen = 16

// FlexString accepts a JSON string, number or null. The service stores
// numeric form fields (year, kmp, price) as whatever the submitter sent.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("flex string: %w", err)
		}
		*f = FlexString(n.String())
	}
	return nil
}

// VehicleRecord is one gate-log entry as returned by the service.
type VehicleRecord struct {
	ID            string      `json:"_id"`
	RegNo         string      `json:"regNo"`
	PersonName    string      `json:"personName"`
	Make          string      `json:"make"`
	Model         string      `json:"model"`
	Variant       string      `json:"variant"`
	Year          FlexString  `json:"year"`
	Colour        string      `json:"colour"`
	Kmp           FlexString  `json:"kmp"`
	CellNo        string      `json:"cellNo"`
	Price         FlexString  `json:"price"`
	ReferralID    string      `json:"referralId"`
	InOutStatus   InOutStatus `json:"inOutStatus"`
	InOutDateTime time.Time   `json:"inOutDateTime"`
	Notes         string      `json:"notes,omitempty"`
	Photos        []string    `json:"photos"`
	Video         string      `json:"video,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

func (r *VehicleRecord) UnmarshalJSON(b []byte) error {
	type plain VehicleRecord
	var aux struct {
		plain
		AltID    string `json:"id"`
		AltColor string `json:"color"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = VehicleRecord(aux.plain)
	if r.ID == "" {
		r.ID = aux.AltID
	}
	if r.Colour == "" {
		r.Colour = aux.AltColor
	}
	return nil
}

var (
	ErrMissingField = errors.New("required field is empty")
	ErrInvalidField = errors.New("invalid field value")
)

// RecordFields are the scalar inputs of the record form. InOutDateTime is the
// naive local "YYYY-MM-DDTHH:mm" value typed by the operator.
type RecordFields struct {
	InOutStatus   InOutStatus
	InOutDateTime string
	RegNo         string
	Make          string
	Model         string
	Variant       string
	Year          string
	Colour        string
	Kmp           string
	PersonName    string
	CellNo        string
	Price         string
	ReferralID    string
	Notes         string
}

// Validate mirrors the form's required markers. Notes is optional.
func (f RecordFields) Validate() error {
	required := []struct{ name, value string }{
		{"inOutStatus", string(f.InOutStatus)},
		{"inOutDateTime", f.InOutDateTime},
		{"regNo", f.RegNo},
		{"make", f.Make},
		{"model", f.Model},
		{"variant", f.Variant},
		{"year", f.Year},
		{"colour", f.Colour},
		{"kmp", f.Kmp},
		{"personName", f.PersonName},
		{"cellNo", f.CellNo},
		{"price", f.Price},
		{"referralId", f.ReferralID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, r.name)
		}
	}

	if f.InOutStatus != StatusIn && f.InOutStatus != StatusOut {
		return fmt.Errorf("%w: inOutStatus must be IN or OUT", ErrInvalidField)
	}
	for name, v := range map[string]string{"year": f.Year, "kmp": f.Kmp, "price": f.Price} {
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return fmt.Errorf("%w: %s must be a number", ErrInvalidField, name)
		}
	}
	if len([]rune(f.ReferralID)) > MaxReferralIDLen {
		return fmt.Errorf("%w: referralId longer than %d characters", ErrInvalidField, MaxReferralIDLen)
	}
	return nil
}

// FieldsFromRecord pre-fills the form from a stored record. localize turns
// the stored instant back into the naive wall-clock form.
func FieldsFromRecord(r VehicleRecord, localize func(time.Time) string) RecordFields {
	f := RecordFields{
		InOutStatus: r.InOutStatus,
		RegNo:       r.RegNo,
		Make:        r.Make,
		Model:       r.Model,
		Variant:     r.Variant,
		Year:        string(r.Year),
		Colour:      r.Colour,
		Kmp:         string(r.Kmp),
		PersonName:  r.PersonName,
		CellNo:      r.CellNo,
		Price:       string(r.Price),
		ReferralID:  r.ReferralID,
		Notes:       r.Notes,
	}
	if !r.InOutDateTime.IsZero() && localize != nil {
		f.InOutDateTime = localize(r.InOutDateTime)
	}
	return f
}
