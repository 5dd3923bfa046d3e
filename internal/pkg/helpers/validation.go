package helpers

import (
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	maxNameLen     = 128
	minPasswordLen = 8
)

// ValidateUsername checks registration input
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username cannot be empty")
	}
	if len(username) > maxNameLen {
		return fmt.Errorf("username longer than %d characters", maxNameLen)
	}
	return nil
}

// ValidatePassword enforces the minimum password length
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	return nil
}

// ValidateName checks a key or secret name
func ValidateName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("name longer than %d characters", maxNameLen)
	}
	return nil
}

// DecodeHexField decodes a hex-encoded wire field, naming it in errors
func DecodeHexField(field, value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s hex", field)
	}
	return b, nil
}
