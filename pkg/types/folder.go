package types

import "time"

// FolderType is the semantic kind of a mailbox folder
type FolderType string

const (
	FolderTypeInbox   FolderType = "inbox"
	FolderTypeSent    FolderType = "sent"
	FolderTypeDrafts  FolderType = "drafts"
	FolderTypeTrash   FolderType = "trash"
	FolderTypeSpam    FolderType = "spam"
	FolderTypeArchive FolderType = "archive"
	FolderTypeCustom  FolderType = "custom"
)

// Folder is a mailbox compartment under an account. Path is the slash-joined
// chain of folder names and is unique per account. RemoteName is the
// server-native mailbox name used to open the folder.
type Folder struct {
	Id           string     `json:"id" db:"id"`
	AccountId    string     `json:"account_id" db:"account_id"`
	Name         string     `json:"name" db:"name"`
	Path         string     `json:"path" db:"path"`
	RemoteName   string     `json:"remote_name,omitempty" db:"remote_name"`
	Type         FolderType `json:"type" db:"type"`
	MessageCount *int       `json:"message_count" db:"message_count"`
	UnreadCount  *int       `json:"unread_count" db:"unread_count"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// MailboxName returns the name to select on the server
func (f *Folder) MailboxName() string {
	if f.RemoteName != "" {
		return f.RemoteName
	}
	return f.Path
}
