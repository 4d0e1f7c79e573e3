package mailbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow(t *testing.T) {
	tests := []struct {
		total, window uint32
		from, to      uint32
	}{
		{total: 5, window: 20, from: 1, to: 5},
		{total: 20, window: 20, from: 1, to: 20},
		{total: 21, window: 20, from: 2, to: 21},
		{total: 100, window: 20, from: 81, to: 100},
		{total: 1, window: 20, from: 1, to: 1},
	}

	for _, tt := range tests {
		from, to := Window(tt.total, tt.window)
		assert.Equal(t, tt.from, from, "total=%d", tt.total)
		assert.Equal(t, tt.to, to, "total=%d", tt.total)
	}
}

func TestBuildTree(t *testing.T) {
	tree := buildTree([]listEntry{
		{Name: "Sent", Delim: '/', SpecialUse: `\Sent`},
		{Name: "Old/Archive", Delim: '/'},
		{Name: "INBOX", Delim: '/'},
		{Name: "INBOX/Receipts", Delim: '/'},
	})

	require.Len(t, tree, 3)
	assert.Equal(t, "INBOX", tree[0].Name)
	assert.False(t, tree[0].NoSelect)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Receipts", tree[0].Children[0].Name)
	assert.Equal(t, "INBOX/Receipts", tree[0].Children[0].FullName)

	// Parent implied by Old/Archive is not selectable
	assert.Equal(t, "Old", tree[1].Name)
	assert.True(t, tree[1].NoSelect)
	require.Len(t, tree[1].Children, 1)
	assert.Equal(t, "Archive", tree[1].Children[0].Name)

	assert.Equal(t, "Sent", tree[2].Name)
	assert.Equal(t, `\Sent`, tree[2].SpecialUse)
}

func TestBuildTreeDotDelimiter(t *testing.T) {
	tree := buildTree([]listEntry{
		{Name: "INBOX", Delim: '.'},
		{Name: "INBOX.Drafts", Delim: '.'},
	})

	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Drafts", tree[0].Children[0].Name)
	assert.Equal(t, "INBOX.Drafts", tree[0].Children[0].FullName)
}

func TestFetchWindowAlwaysLogsOut(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Email: "a@example.com"}

	d := NewFakeDialer()
	for i := 0; i < 25; i++ {
		d.Mailboxes["INBOX"] = append(d.Mailboxes["INBOX"], &RawMessage{UID: uint32(i + 1)})
	}

	messages, total, err := FetchWindow(ctx, d, cfg, "INBOX", 20)
	require.NoError(t, err)
	assert.Equal(t, uint32(25), total)
	assert.Len(t, messages, 20)
	assert.Equal(t, [][2]uint32{{6, 25}}, d.Fetched)
	assert.Equal(t, 1, d.LogoutCount())

	d.FetchErr = errors.New("connection reset")
	_, _, err = FetchWindow(ctx, d, cfg, "INBOX", 20)
	require.Error(t, err)
	assert.Equal(t, 2, d.LogoutCount())

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "a@example.com", connErr.Email)
	assert.Equal(t, "fetch", connErr.Op)
	assert.Contains(t, err.Error(), "a@example.com")
}

func TestConnectionErrors(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Email: "b@example.com"}

	d := NewFakeDialer()
	d.DialErr = errors.New("login: invalid credentials")

	err := Validate(ctx, d, cfg)
	assert.True(t, IsConnectionError(err))
	assert.Equal(t, 0, d.LogoutCount())

	d.DialErr = nil
	_, _, err = FetchWindow(ctx, d, cfg, "Missing", 20)
	assert.True(t, IsConnectionError(err))
	assert.Equal(t, 1, d.LogoutCount())
}

func TestRemoteID(t *testing.T) {
	assert.Equal(t, "<abc@host>", (&RawMessage{UID: 7, MessageID: "<abc@host>"}).RemoteID())
	assert.Equal(t, "7", (&RawMessage{UID: 7}).RemoteID())
}
