package enums

import "fmt"

// PostValidationAction tells the cascade what to do with a product once its
// design is approved.
type PostValidationAction string

const (
	PostValidationAutoPublish PostValidationAction = "auto_publish"
	PostValidationToDraft     PostValidationAction = "to_draft"
)

var validPostValidationActions = []PostValidationAction{
	PostValidationAutoPublish,
	PostValidationToDraft,
}

// String returns the literal string for the action.
func (p PostValidationAction) String() string {
	return string(p)
}

// IsValid reports whether the action is known.
func (p PostValidationAction) IsValid() bool {
	for _, candidate := range validPostValidationActions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePostValidationAction converts raw input into a PostValidationAction.
func ParsePostValidationAction(value string) (PostValidationAction, error) {
	for _, candidate := range validPostValidationActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid post validation action %q", value)
}
