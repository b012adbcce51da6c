package enums

import "fmt"

// RecordKind names the collection a checkout record lives in.
type RecordKind string

const (
	RecordKindBooking      RecordKind = "booking"
	RecordKindSubscription RecordKind = "subscription"
)

var validRecordKinds = []RecordKind{RecordKindBooking, RecordKindSubscription}

// String implements fmt.Stringer.
func (k RecordKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known RecordKind.
func (k RecordKind) IsValid() bool {
	for _, candidate := range validRecordKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseRecordKind converts raw input into a RecordKind.
func ParseRecordKind(value string) (RecordKind, error) {
	for _, candidate := range validRecordKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid record kind %q", value)
}
