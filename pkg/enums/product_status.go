package enums

import "fmt"

// ProductStatus describes the publication axis of a vendor product.
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusPending   ProductStatus = "pending"
	ProductStatusPublished ProductStatus = "published"
	ProductStatusRejected  ProductStatus = "rejected"
)

var validProductStatuses = []ProductStatus{
	ProductStatusDraft,
	ProductStatusPending,
	ProductStatusPublished,
	ProductStatusRejected,
}

// String returns the literal string for the status.
func (p ProductStatus) String() string {
	return string(p)
}

// IsValid reports whether the status is known.
func (p ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}
