package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh row id
func NewID() string {
	return uuid.NewString()
}

// MessageExternalID builds the de-duplication key of an imported message.
// remoteID is the protocol Message-ID when present, otherwise the UID.
func MessageExternalID(accountId, remoteID string) string {
	return fmt.Sprintf("%s-%s", accountId, remoteID)
}

// DemoExternalID builds the de-duplication key of a generated demo message
func DemoExternalID(accountId string, ts time.Time) string {
	return fmt.Sprintf("%s-demo-%d", accountId, ts.UnixNano())
}
