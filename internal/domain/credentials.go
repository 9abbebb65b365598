package domain

import (
	"fmt"
	"strings"
)

// Credentials holds everything needed to authenticate one account.
// Loaded once and read-only afterwards; session state lives in the
// session manager, never here.
type Credentials struct {
	Login          string
	Password       string
	SharedSecret   string
	IdentitySecret string
	DeviceID       string

	// Optional: known from a saved session file.
	SteamID      SteamID64
	RefreshToken string
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Login) == "" {
		return fmt.Errorf("login is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	if c.SharedSecret == "" {
		return fmt.Errorf("shared secret is required")
	}
	if c.IdentitySecret == "" {
		return fmt.Errorf("identity secret is required")
	}
	return nil
}
