package enums

import "fmt"

// DesignStatus describes the moderation lifecycle of a vendor design.
type DesignStatus string

const (
	DesignStatusDraft     DesignStatus = "draft"
	DesignStatusPending   DesignStatus = "pending"
	DesignStatusValidated DesignStatus = "validated"
	DesignStatusRejected  DesignStatus = "rejected"
)

var validDesignStatuses = []DesignStatus{
	DesignStatusDraft,
	DesignStatusPending,
	DesignStatusValidated,
	DesignStatusRejected,
}

// String returns the literal string for the status.
func (d DesignStatus) String() string {
	return string(d)
}

// IsValid reports whether the status is known.
func (d DesignStatus) IsValid() bool {
	for _, candidate := range validDesignStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDesignStatus converts raw input into a DesignStatus.
func ParseDesignStatus(value string) (DesignStatus, error) {
	for _, candidate := range validDesignStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid design status %q", value)
}
