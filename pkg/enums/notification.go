package enums

import "fmt"

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotificationDesignApproved NotificationType = "design_approved"
	NotificationDesignRejected NotificationType = "design_rejected"
	NotificationProductUpdated NotificationType = "product_updated"
	NotificationSystem         NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationDesignApproved,
	NotificationDesignRejected,
	NotificationProductUpdated,
	NotificationSystem,
}

// String returns the literal string for the type.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the type is known.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
