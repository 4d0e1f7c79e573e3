package types

import "time"

// MessageStatus is the Kanban workflow column of a message
type MessageStatus string

const (
	MessageStatusInbox      MessageStatus = "inbox"
	MessageStatusAwaiting   MessageStatus = "awaiting"
	MessageStatusProcessing MessageStatus = "processing"
	MessageStatusDone       MessageStatus = "done"
)

// MessageStatuses lists every workflow status in board order
var MessageStatuses = []MessageStatus{
	MessageStatusInbox,
	MessageStatusAwaiting,
	MessageStatusProcessing,
	MessageStatusDone,
}

func (s MessageStatus) Valid() bool {
	for _, status := range MessageStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Message is one imported email. ExternalId is the de-duplication key.
// The flag pointers are tri-state: nil means the flag was never set.
type Message struct {
	Id          string        `json:"id" db:"id"`
	AccountId   string        `json:"account_id" db:"account_id"`
	FolderId    *string       `json:"folder_id" db:"folder_id"`
	ExternalId  string        `json:"external_id" db:"external_id"`
	Subject     string        `json:"subject" db:"subject"`
	FromAddress string        `json:"from_address" db:"from_address"`
	FromName    string        `json:"from_name,omitempty" db:"from_name"`
	Date        time.Time     `json:"date" db:"date"`
	Preview     string        `json:"preview" db:"preview"`
	Content     string        `json:"content" db:"content"`
	IsRead      *bool         `json:"is_read" db:"is_read"`
	IsFlagged   *bool         `json:"is_flagged" db:"is_flagged"`
	Archived    *bool         `json:"archived" db:"archived"`
	Deleted     *bool         `json:"deleted" db:"deleted"`
	Status      MessageStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// MessageFilter narrows message listings. Zero values are ignored.
type MessageFilter struct {
	AccountId      string
	FolderId       string
	Status         MessageStatus
	IncludeDeleted bool
	Limit          int
}

// StoreCapabilities declares which optional fields a store can persist.
// It is read once per import run.
type StoreCapabilities struct {
	SchemaVersion int64 `json:"schema_version"`
	MessageFlags  bool  `json:"message_flags"` // archived + deleted columns
}
