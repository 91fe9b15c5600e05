package utils

import (
	"fmt"
)

// ValidateClientID validates client ID
func ValidateClientID(clientID string) error {
	if clientID == "" {
		return fmt.Errorf("client ID is required")
	}
	if len(clientID) > 255 {
		return fmt.Errorf("client ID too long (max 255 chars)")
	}
	return nil
}

// ValidateRequired validates a field is not empty
func ValidateRequired(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateUUID validates UUID format using existing IsValidUUID
func ValidateUUID(id string) error {
	if !IsValidUUID(id) {
		return fmt.Errorf("invalid UUID format: %s", id)
	}
	return nil
}

// ValidateResourceID validates a consent or authorisation identifier.
func ValidateResourceID(fieldName, id string) error {
	if err := ValidateRequired(fieldName, id); err != nil {
		return err
	}
	if len(id) > 255 {
		return fmt.Errorf("%s too long (max 255 chars)", fieldName)
	}
	return ValidateUUID(id)
}
