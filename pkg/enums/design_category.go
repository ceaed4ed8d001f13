package enums

import "fmt"

// DesignCategory classifies the artwork a vendor uploads.
type DesignCategory string

const (
	DesignCategoryLogo         DesignCategory = "logo"
	DesignCategoryIllustration DesignCategory = "illustration"
	DesignCategoryPattern      DesignCategory = "pattern"
	DesignCategoryTypography   DesignCategory = "typography"
	DesignCategoryPhoto        DesignCategory = "photo"
)

var validDesignCategories = []DesignCategory{
	DesignCategoryLogo,
	DesignCategoryIllustration,
	DesignCategoryPattern,
	DesignCategoryTypography,
	DesignCategoryPhoto,
}

// String returns the literal string for the category.
func (d DesignCategory) String() string {
	return string(d)
}

// IsValid reports whether the category is known.
func (d DesignCategory) IsValid() bool {
	for _, candidate := range validDesignCategories {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDesignCategory converts raw input into a DesignCategory.
func ParseDesignCategory(value string) (DesignCategory, error) {
	for _, candidate := range validDesignCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid design category %q", value)
}
