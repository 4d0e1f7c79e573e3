package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/charset"
	"github.com/rs/zerolog/log"
)

// specialUseAttrs are the mailbox attributes that name a folder's role
var specialUseAttrs = []imap.MailboxAttr{
	imap.MailboxAttrSent,
	imap.MailboxAttrDrafts,
	imap.MailboxAttrTrash,
	imap.MailboxAttrJunk,
	imap.MailboxAttrArchive,
}

// IMAPDialer opens sessions over TLS: implicit TLS on port 993, STARTTLS otherwise
type IMAPDialer struct{}

func NewIMAPDialer() *IMAPDialer {
	return &IMAPDialer{}
}

func (d *IMAPDialer) Dial(ctx context.Context, cfg Config) (Session, error) {
	options := &imapclient.Options{
		TLSConfig: &tls.Config{
			ServerName:         cfg.Host,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
		WordDecoder: &mime.WordDecoder{CharsetReader: charset.Reader},
	}

	var netDialer net.Dialer
	conn, err := netDialer.DialContext(ctx, "tcp", cfg.addr())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.addr(), err)
	}

	var client *imapclient.Client
	if cfg.Port == implicitTLS {
		tlsConn := tls.Client(conn, options.TLSConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("tls handshake: %w", err)
		}
		client = imapclient.New(tlsConn, options)
	} else {
		client, err = imapclient.NewStartTLS(conn, options)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}

	// Closing the connection unblocks any pending command when ctx ends
	stop := context.AfterFunc(ctx, func() { client.Close() })

	if err := client.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		stop()
		client.Close()
		return nil, fmt.Errorf("login: %w", err)
	}

	log.Debug().Str("email", cfg.Email).Str("addr", cfg.addr()).Msg("imap session opened")

	return &imapSession{client: client, stop: stop}, nil
}

type imapSession struct {
	client *imapclient.Client
	stop   func() bool
}

func (s *imapSession) ListMailboxes(ctx context.Context) ([]*Mailbox, error) {
	var options *imap.ListOptions
	if s.client.Caps().Has(imap.CapSpecialUse) {
		options = &imap.ListOptions{ReturnSpecialUse: true}
	}

	listed, err := s.client.List("", "*", options).Collect()
	if err != nil {
		return nil, err
	}

	entries := make([]listEntry, 0, len(listed))
	for _, data := range listed {
		entries = append(entries, newListEntry(data))
	}
	return buildTree(entries), nil
}

func newListEntry(data *imap.ListData) listEntry {
	return listEntry{
		Name:       data.Mailbox,
		Delim:      data.Delim,
		NoSelect:   hasAttr(data.Attrs, imap.MailboxAttrNoSelect) || hasAttr(data.Attrs, imap.MailboxAttrNonExistent),
		SpecialUse: specialUse(data.Attrs),
	}
}

func (s *imapSession) Open(ctx context.Context, name string) (uint32, error) {
	data, err := s.client.Select(name, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return 0, err
	}
	return data.NumMessages, nil
}

func (s *imapSession) Fetch(ctx context.Context, from, to uint32) ([]*RawMessage, error) {
	var seqSet imap.SeqSet
	seqSet.AddRange(from, to)

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := s.client.Fetch(seqSet, &imap.FetchOptions{
		Envelope:    true,
		Flags:       true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	var messages []*RawMessage
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			log.Warn().Err(err).Uint32("seq", msg.SeqNum).Msg("skipping message that could not be collected")
			continue
		}

		raw := &RawMessage{
			SeqNum:  buf.SeqNum,
			UID:     uint32(buf.UID),
			Seen:    hasFlag(buf.Flags, imap.FlagSeen),
			Flagged: hasFlag(buf.Flags, imap.FlagFlagged),
			Body:    buf.FindBodySection(bodySection),
		}
		if buf.Envelope != nil {
			raw.MessageID = buf.Envelope.MessageID
		}
		messages = append(messages, raw)
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, err
	}
	return messages, nil
}

func (s *imapSession) Logout() error {
	defer s.stop()
	defer s.client.Close()
	return s.client.Logout().Wait()
}

func hasAttr(attrs []imap.MailboxAttr, want imap.MailboxAttr) bool {
	for _, attr := range attrs {
		if attr == want {
			return true
		}
	}
	return false
}

func specialUse(attrs []imap.MailboxAttr) string {
	for _, attr := range specialUseAttrs {
		if hasAttr(attrs, attr) {
			return string(attr)
		}
	}
	return ""
}

func hasFlag(flags []imap.Flag, want imap.Flag) bool {
	for _, flag := range flags {
		if flag == want {
			return true
		}
	}
	return false
}
