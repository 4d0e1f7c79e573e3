package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/mailsync/pkg/common"
	"github.com/beam-cloud/mailsync/pkg/types"
)

func createTestAccount(t *testing.T, b *SQLBackend, userId string) *types.Account {
	t.Helper()
	account := &types.Account{
		UserId:       userId,
		Provider:     "custom",
		Email:        userId + "@example.com",
		AuthType:     types.AuthTypeIMAP,
		IMAPHost:     "imap.example.com",
		IMAPPort:     993,
		IMAPUsername: userId,
		IMAPSecret:   "hunter2",
	}
	require.NoError(t, b.CreateAccount(context.Background(), account))
	return account
}

func boolPtr(v bool) *bool { return &v }

func TestAccounts(t *testing.T) {
	b := NewSQLiteBackendForTest(t)
	ctx := context.Background()

	alice := createTestAccount(t, b, "alice")
	createTestAccount(t, b, "bob")

	got, err := b.GetAccount(ctx, alice.Id)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "hunter2", got.IMAPSecret)
	assert.Equal(t, 15, got.SyncInterval)
	assert.Nil(t, got.LastSynced)

	all, err := b.ListAccounts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := b.ListAccounts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, alice.Id, mine[0].Id)

	now := time.Now()
	require.NoError(t, b.UpdateAccountLastSynced(ctx, alice.Id, now))
	got, err = b.GetAccount(ctx, alice.Id)
	require.NoError(t, err)
	require.NotNil(t, got.LastSynced)
	assert.WithinDuration(t, now, *got.LastSynced, time.Second)

	_, err = b.GetAccount(ctx, "missing")
	assert.True(t, types.IsNotFound(err))

	require.NoError(t, b.DeleteAccount(ctx, alice.Id))
	assert.True(t, types.IsNotFound(b.DeleteAccount(ctx, alice.Id)))
}

func TestAccountSecretsSealedAtRest(t *testing.T) {
	box, err := common.NewSecretBox("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=")
	require.NoError(t, err)

	b := NewSQLiteBackendForTest(t)
	b.secrets = box
	account := createTestAccount(t, b, "carol")

	var stored string
	require.NoError(t, b.DB().Get(&stored, `SELECT imap_secret FROM email_accounts WHERE id = ?`, account.Id))
	assert.NotEqual(t, "hunter2", stored)

	got, err := b.GetAccount(context.Background(), account.Id)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got.IMAPSecret)
}

func TestInsertFolderIfAbsent(t *testing.T) {
	b := NewSQLiteBackendForTest(t)
	ctx := context.Background()
	account := createTestAccount(t, b, "alice")

	inserted, err := b.InsertFolderIfAbsent(ctx, &types.Folder{AccountId: account.Id, Name: "INBOX", Path: "INBOX", Type: types.FolderTypeInbox})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = b.InsertFolderIfAbsent(ctx, &types.Folder{AccountId: account.Id, Name: "INBOX", Path: "INBOX", Type: types.FolderTypeInbox})
	require.NoError(t, err)
	assert.False(t, inserted)

	inserted, err = b.InsertFolderIfAbsent(ctx, &types.Folder{AccountId: account.Id, Name: "Archive", Path: "Old/Archive"})
	require.NoError(t, err)
	assert.True(t, inserted)

	folders, err := b.ListFolders(ctx, account.Id)
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, "INBOX", folders[0].Path)
	assert.Equal(t, types.FolderTypeCustom, folders[1].Type)
	assert.Nil(t, folders[0].MessageCount)
}

func TestMessagesAndFolderCounts(t *testing.T) {
	b := NewSQLiteBackendForTest(t)
	ctx := context.Background()
	account := createTestAccount(t, b, "alice")

	folder := &types.Folder{AccountId: account.Id, Name: "INBOX", Path: "INBOX", Type: types.FolderTypeInbox}
	_, err := b.InsertFolderIfAbsent(ctx, folder)
	require.NoError(t, err)

	caps, err := b.Capabilities(ctx)
	require.NoError(t, err)
	assert.True(t, caps.MessageFlags)

	reads := []*bool{boolPtr(true), boolPtr(false), nil}
	for i, read := range reads {
		msg := &types.Message{
			AccountId:   account.Id,
			FolderId:    &folder.Id,
			ExternalId:  account.Id + "-" + string(rune('a'+i)),
			Subject:     "hello",
			FromAddress: "sender@example.com",
			Date:        time.Now().Add(-time.Duration(i) * time.Hour),
			IsRead:      read,
			Archived:    boolPtr(false),
			Deleted:     boolPtr(false),
		}
		inserted, err := b.InsertMessageIfAbsent(ctx, msg, caps)
		require.NoError(t, err)
		assert.True(t, inserted)
	}

	// Same external id is skipped
	inserted, err := b.InsertMessageIfAbsent(ctx, &types.Message{AccountId: account.Id, ExternalId: account.Id + "-a", Date: time.Now()}, caps)
	require.NoError(t, err)
	assert.False(t, inserted)

	updated, err := b.RecomputeFolderCounts(ctx, folder.Id)
	require.NoError(t, err)
	require.NotNil(t, updated.MessageCount)
	require.NotNil(t, updated.UnreadCount)
	assert.Equal(t, 3, *updated.MessageCount)
	assert.Equal(t, 2, *updated.UnreadCount)

	messages, err := b.ListMessages(ctx, types.MessageFilter{AccountId: account.Id})
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, account.Id+"-a", messages[0].ExternalId)
	assert.Equal(t, types.MessageStatusInbox, messages[0].Status)
	require.NotNil(t, messages[0].Archived)
	assert.False(t, *messages[0].Archived)

	require.NoError(t, b.SetMessageDeleted(ctx, messages[0].Id, true))
	messages, err = b.ListMessages(ctx, types.MessageFilter{AccountId: account.Id})
	require.NoError(t, err)
	assert.Len(t, messages, 2)

	require.NoError(t, b.UpdateMessageStatus(ctx, messages[0].Id, types.MessageStatusDone))
	got, err := b.GetMessage(ctx, messages[0].Id)
	require.NoError(t, err)
	assert.Equal(t, types.MessageStatusDone, got.Status)

	assert.True(t, types.IsNotFound(b.UpdateMessageStatus(ctx, "missing", types.MessageStatusDone)))
}

func TestMessagesWithoutFlagColumns(t *testing.T) {
	b := NewSQLiteBackendAtVersionForTest(t, 1)
	ctx := context.Background()
	account := createTestAccount(t, b, "alice")

	caps, err := b.Capabilities(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), caps.SchemaVersion)
	assert.False(t, caps.MessageFlags)

	msg := &types.Message{
		AccountId:  account.Id,
		ExternalId: account.Id + "-1",
		Date:       time.Now(),
		Archived:   boolPtr(true),
		Deleted:    boolPtr(false),
	}
	inserted, err := b.InsertMessageIfAbsent(ctx, msg, caps)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Nil(t, msg.Archived)

	got, err := b.GetMessageByExternalId(ctx, account.Id+"-1")
	require.NoError(t, err)
	assert.Nil(t, got.Archived)
	assert.Nil(t, got.Deleted)

	err = b.SetMessageArchived(ctx, got.Id, true)
	var unsupported *types.ErrCapabilityUnsupported
	assert.ErrorAs(t, err, &unsupported)
}

func TestJobLifecycle(t *testing.T) {
	b := NewSQLiteBackendForTest(t)
	ctx := context.Background()
	alice := createTestAccount(t, b, "alice")
	bob := createTestAccount(t, b, "bob")

	base := time.Now().Add(-time.Minute)
	first := &types.SyncJob{Type: types.JobTypeEmailSync, AccountId: &alice.Id, CreatedAt: base}
	second := &types.SyncJob{Type: types.JobTypeEmailSync, AccountId: &bob.Id, CreatedAt: base.Add(time.Second)}
	future := time.Now().Add(time.Hour)
	later := &types.SyncJob{Type: types.JobTypeEmailSync, AccountId: &alice.Id, NextRunAt: &future, CreatedAt: base.Add(2 * time.Second)}
	cleanup := &types.SyncJob{Type: types.JobTypeCleanup, CreatedAt: base}
	for _, job := range []*types.SyncJob{second, first, later, cleanup} {
		require.NoError(t, b.CreateJob(ctx, job))
	}

	due, err := b.ListDueJobs(ctx, types.JobTypeEmailSync, time.Now(), types.SweepScope{})
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, first.Id, due[0].Id)
	assert.Equal(t, second.Id, due[1].Id)
	assert.Equal(t, types.JobMetadata{}, due[0].Metadata)

	scoped, err := b.ListDueJobs(ctx, types.JobTypeEmailSync, time.Now(), types.SweepScope{UserId: "bob"})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, second.Id, scoped[0].Id)

	require.NoError(t, b.SetJobStarted(ctx, first.Id))
	var notClaimable *types.ErrJobNotClaimable
	assert.ErrorAs(t, b.SetJobStarted(ctx, first.Id), &notClaimable)

	require.NoError(t, b.SetJobResult(ctx, first.Id, "", nil))
	got, err := b.GetJob(ctx, first.Id)
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCompleted, got.Status)
	assert.Empty(t, got.Error)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.FinishedAt)

	require.NoError(t, b.SetJobStarted(ctx, second.Id))
	next := time.Now().Add(15 * time.Minute)
	require.NoError(t, b.SetJobResult(ctx, second.Id, "connection refused", &next))
	got, err = b.GetJob(ctx, second.Id)
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusFailed, got.Status)
	assert.Equal(t, "connection refused", got.Error)
	require.NotNil(t, got.NextRunAt)
	assert.WithinDuration(t, next, *got.NextRunAt, time.Second)

	require.NoError(t, b.CancelJob(ctx, later.Id))
	assert.ErrorAs(t, b.CancelJob(ctx, later.Id), &notClaimable)
	assert.True(t, types.IsNotFound(b.CancelJob(ctx, "missing")))

	jobs, err := b.ListJobs(ctx, types.JobFilter{UserId: "alice"})
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	failed, err := b.ListJobs(ctx, types.JobFilter{Status: types.JobStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, second.Id, failed[0].Id)
}
