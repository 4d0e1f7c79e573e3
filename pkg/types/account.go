package types

import "time"

// AuthType is how an account authenticates against its provider
type AuthType string

const (
	AuthTypeOAuth2 AuthType = "oauth2"
	AuthTypeIMAP   AuthType = "imap"
	AuthTypePOP3   AuthType = "pop3"
)

func (t AuthType) Valid() bool {
	switch t {
	case AuthTypeOAuth2, AuthTypeIMAP, AuthTypePOP3:
		return true
	}
	return false
}

// Account is one external mailbox owned by a user
type Account struct {
	Id       string   `json:"id" db:"id"`
	UserId   string   `json:"user_id" db:"user_id"`
	Provider string   `json:"provider" db:"provider"`
	Email    string   `json:"email" db:"email"`
	AuthType AuthType `json:"auth_type" db:"auth_type"`

	IMAPHost     string `json:"imap_host,omitempty" db:"imap_host"`
	IMAPPort     int    `json:"imap_port,omitempty" db:"imap_port"`
	IMAPUsername string `json:"imap_username,omitempty" db:"imap_username"`
	IMAPSecret   string `json:"-" db:"imap_secret"`

	SMTPHost     string `json:"smtp_host,omitempty" db:"smtp_host"`
	SMTPPort     int    `json:"smtp_port,omitempty" db:"smtp_port"`
	SMTPUsername string `json:"smtp_username,omitempty" db:"smtp_username"`
	SMTPSecret   string `json:"-" db:"smtp_secret"`

	// SyncInterval is in minutes
	SyncInterval int        `json:"sync_interval" db:"sync_interval"`
	LastSynced   *time.Time `json:"last_synced" db:"last_synced"` // nil = never synced
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// HasIMAPCredentials reports whether the account can open a real IMAP session.
// Anything else is synced from generated demo data.
func (a *Account) HasIMAPCredentials() bool {
	return a.AuthType == AuthTypeIMAP &&
		a.IMAPHost != "" &&
		a.IMAPPort > 0 &&
		a.IMAPUsername != "" &&
		a.IMAPSecret != ""
}

// IsOwnedBy reports whether userId owns the account
func (a *Account) IsOwnedBy(userId string) bool {
	return a != nil && userId != "" && a.UserId == userId
}
