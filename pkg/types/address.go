package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressComponents is the normalized breakdown of a resolved place.
type AddressComponents struct {
	StreetNumber       string `json:"streetNumber,omitempty" firestore:"streetNumber,omitempty"`
	Route              string `json:"route,omitempty" firestore:"route,omitempty"`
	Locality           string `json:"locality,omitempty" firestore:"locality,omitempty"`
	AdministrativeArea string `json:"administrativeArea,omitempty" firestore:"administrativeArea,omitempty"`
	PostalCode         string `json:"postalCode,omitempty" firestore:"postalCode,omitempty"`
	Country            string `json:"country,omitempty" firestore:"country,omitempty"`
}

// AddressDetails is the address record produced by the autocomplete widget
// or the resolve endpoint. It is persisted exactly as received.
type AddressDetails struct {
	PlaceID          string            `json:"placeId,omitempty" firestore:"placeId,omitempty"`
	FormattedAddress string            `json:"formattedAddress,omitempty" firestore:"formattedAddress,omitempty"`
	Components       AddressComponents `json:"components" firestore:"components"`
	Latitude         *float64          `json:"lat,omitempty" firestore:"lat,omitempty"`
	Longitude        *float64          `json:"lng,omitempty" firestore:"lng,omitempty"`
}

// IsZero reports whether no address field was supplied.
func (a AddressDetails) IsZero() bool {
	return strings.TrimSpace(a.PlaceID) == "" &&
		strings.TrimSpace(a.FormattedAddress) == "" &&
		a.Components == (AddressComponents{}) &&
		a.Latitude == nil && a.Longitude == nil
}

// Value stores the details as a JSON column.
func (a AddressDetails) Value() (driver.Value, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("address details: %w", err)
	}
	return string(raw), nil
}

// Scan decodes a JSON column written by Value.
func (a *AddressDetails) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*a = AddressDetails{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), a)
	case []byte:
		return json.Unmarshal(v, a)
	default:
		return fmt.Errorf("address details: unsupported scan type %T", value)
	}
}
