package identity

import "time"

// User is the canonical local record for an externally authenticated
// principal. ID always equals SubjectID for rows created by this service;
// the two columns exist separately because historical rows diverged and
// lookups must work through either key.
type User struct {
	ID            string
	SubjectID     string
	WalletAddress *string
	Roles         []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Wallet returns the bound wallet address or "" when none is set.
func (u User) Wallet() string {
	if u.WalletAddress == nil {
		return ""
	}
	return *u.WalletAddress
}
