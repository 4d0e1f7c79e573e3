package syncer

import (
	_ "embed"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/beam-cloud/mailsync/pkg/common"
	"github.com/beam-cloud/mailsync/pkg/parser"
	"github.com/beam-cloud/mailsync/pkg/types"
)

const (
	defaultFallbackCount = 10
	fallbackInboxCount   = 7
	fallbackStep         = time.Hour
)

//go:embed fallback_templates.yaml
var fallbackTemplatesYAML []byte

type fallbackTemplate struct {
	FromName    string `yaml:"from_name"`
	FromAddress string `yaml:"from_address"`
	Subject     string `yaml:"subject"`
	Body        string `yaml:"body"`
}

var fallbackTemplates = mustLoadTemplates()

func mustLoadTemplates() []fallbackTemplate {
	var templates []fallbackTemplate
	if err := yaml.Unmarshal(fallbackTemplatesYAML, &templates); err != nil {
		panic(fmt.Sprintf("invalid fallback templates: %v", err))
	}
	if len(templates) == 0 {
		panic("no fallback templates")
	}
	return templates
}

// GenerateFallback builds count demo messages for an account without usable
// IMAP credentials. Dates step back one hour from now. The first seven are
// in the inbox and the rest get a later status drawn from a source seeded by
// the account id. External ids derive from each message's timestamp.
func GenerateFallback(account *types.Account, folderId string, now time.Time, count int) []*types.Message {
	if count <= 0 {
		count = defaultFallbackCount
	}

	rng := rand.New(rand.NewPCG(seedFor(account.Id), 0))

	messages := make([]*types.Message, 0, count)
	for i := 0; i < count; i++ {
		tmpl := fallbackTemplates[i%len(fallbackTemplates)]
		date := now.Add(-time.Duration(i) * fallbackStep)

		status := types.MessageStatusInbox
		if i >= fallbackInboxCount {
			later := types.MessageStatuses[1:]
			status = later[rng.IntN(len(later))]
		}

		read := i >= 3
		flagged := i%4 == 1

		msg := &types.Message{
			AccountId:   account.Id,
			ExternalId:  common.DemoExternalID(account.Id, date),
			Subject:     tmpl.Subject,
			FromAddress: tmpl.FromAddress,
			FromName:    tmpl.FromName,
			Date:        date,
			Preview:     parser.Preview(tmpl.Body),
			Content:     tmpl.Body,
			IsRead:      &read,
			IsFlagged:   &flagged,
			Status:      status,
		}
		if folderId != "" {
			id := folderId
			msg.FolderId = &id
		}
		messages = append(messages, msg)
	}
	return messages
}

func seedFor(accountId string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(accountId))
	return h.Sum64()
}
