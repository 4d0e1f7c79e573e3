package syncer

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/mailsync/pkg/mailbox"
	"github.com/beam-cloud/mailsync/pkg/types"
)

// FolderDescriptor is one reconciled folder before persistence
type FolderDescriptor struct {
	Name       string
	Path       string
	RemoteName string
	Type       types.FolderType
}

var specialUseTypes = map[string]types.FolderType{
	`\Sent`:    types.FolderTypeSent,
	`\Drafts`:  types.FolderTypeDrafts,
	`\Trash`:   types.FolderTypeTrash,
	`\Junk`:    types.FolderTypeSpam,
	`\Archive`: types.FolderTypeArchive,
}

// Name fragments checked in order; first match wins
var nameTypes = []struct {
	fragment string
	typ      types.FolderType
}{
	{"inbox", types.FolderTypeInbox},
	{"sent", types.FolderTypeSent},
	{"draft", types.FolderTypeDrafts},
	{"trash", types.FolderTypeTrash},
	{"spam", types.FolderTypeSpam},
	{"junk", types.FolderTypeSpam},
	{"archive", types.FolderTypeArchive},
}

// DefaultFolders is used when the server yields no folders or cannot be reached
var DefaultFolders = []FolderDescriptor{
	{Name: "Inbox", Path: "Inbox", Type: types.FolderTypeInbox},
	{Name: "Sent", Path: "Sent", Type: types.FolderTypeSent},
	{Name: "Drafts", Path: "Drafts", Type: types.FolderTypeDrafts},
	{Name: "Trash", Path: "Trash", Type: types.FolderTypeTrash},
	{Name: "Spam", Path: "Spam", Type: types.FolderTypeSpam},
	{Name: "Archive", Path: "Archive", Type: types.FolderTypeArchive},
}

// Classify maps a folder to its type: special-use hint first, then name
func Classify(name, specialUse string) types.FolderType {
	if typ, ok := specialUseTypes[specialUse]; ok {
		return typ
	}

	lower := strings.ToLower(name)
	for _, nt := range nameTypes {
		if strings.Contains(lower, nt.fragment) {
			return nt.typ
		}
	}
	return types.FolderTypeCustom
}

// Flatten walks the mailbox tree depth-first. No-select nodes are left out
// but still contribute their name to their children's paths.
func Flatten(tree []*mailbox.Mailbox) []FolderDescriptor {
	var out []FolderDescriptor
	flatten(tree, "", &out)
	return out
}

func flatten(nodes []*mailbox.Mailbox, parent string, out *[]FolderDescriptor) {
	for _, node := range nodes {
		path := node.Name
		if parent != "" {
			path = parent + "/" + node.Name
		}

		if !node.NoSelect {
			*out = append(*out, FolderDescriptor{
				Name:       node.Name,
				Path:       path,
				RemoteName: node.FullName,
				Type:       Classify(node.Name, node.SpecialUse),
			})
		}

		flatten(node.Children, path, out)
	}
}

// SyncFolders reconciles the account's remote folder tree into folder rows.
// The result count is the number of newly inserted folders.
func (s *Service) SyncFolders(ctx context.Context, accountId string) (*types.SyncResult, error) {
	v, err, _ := s.group.Do("folders:"+accountId, func() (interface{}, error) {
		account, err := s.store.GetAccount(ctx, accountId)
		if err != nil {
			return nil, err
		}

		result, err := s.syncFolders(ctx, account)
		if err != nil {
			return nil, err
		}

		s.invalidate(ctx, accountId)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.SyncResult), nil
}

func (s *Service) syncFolders(ctx context.Context, account *types.Account) (*types.SyncResult, error) {
	var descriptors []FolderDescriptor

	usable := account.HasIMAPCredentials()
	if usable {
		tree, err := mailbox.ListTree(ctx, s.dialer, s.mailboxConfig(account))
		if err != nil {
			return nil, err
		}
		descriptors = Flatten(tree)
	}

	if len(descriptors) == 0 {
		descriptors = DefaultFolders
	}

	inserted := 0
	for _, d := range descriptors {
		ok, err := s.store.InsertFolderIfAbsent(ctx, &types.Folder{
			AccountId:  account.Id,
			Name:       d.Name,
			Path:       d.Path,
			RemoteName: d.RemoteName,
			Type:       d.Type,
		})
		if err != nil {
			log.Warn().Err(err).Str("account_id", account.Id).Str("folder", d.Path).Msg("failed to insert folder")
			continue
		}
		if ok {
			inserted++
		}
	}

	log.Info().
		Str("account_id", account.Id).
		Str("email", account.Email).
		Int("folders", len(descriptors)).
		Int("count", inserted).
		Msg("folders synced")

	return &types.SyncResult{AccountId: account.Id, Count: inserted, Fallback: !usable}, nil
}
