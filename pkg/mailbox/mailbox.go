package mailbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/mailsync/pkg/types"
)

const (
	defaultTimeout = 30 * time.Second
	implicitTLS    = 993
)

// Config is everything needed to open one authenticated session
type Config struct {
	Email              string
	Host               string
	Port               int
	Username           string
	Password           string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// ConfigFromAccount builds a session config from a stored account
func ConfigFromAccount(account *types.Account, timeout time.Duration) Config {
	return Config{
		Email:    account.Email,
		Host:     account.IMAPHost,
		Port:     account.IMAPPort,
		Username: account.IMAPUsername,
		Password: account.IMAPSecret,
		Timeout:  timeout,
	}
}

func (c Config) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Mailbox is one node of the server's folder tree
type Mailbox struct {
	Name       string // last path segment
	FullName   string // server-native name, used to select
	SpecialUse string // RFC 6154 attribute such as \Sent, empty when none
	NoSelect   bool
	Children   []*Mailbox
}

// RawMessage is a fetched message before parsing
type RawMessage struct {
	SeqNum    uint32
	UID       uint32
	MessageID string
	Seen      bool
	Flagged   bool
	Body      []byte
}

// RemoteID is the message's stable identifier on the server: its
// Message-ID when present, otherwise its UID.
func (m *RawMessage) RemoteID() string {
	if m.MessageID != "" {
		return m.MessageID
	}
	return fmt.Sprintf("%d", m.UID)
}

// Session is an authenticated connection to one account
type Session interface {
	ListMailboxes(ctx context.Context) ([]*Mailbox, error)
	// Open selects a mailbox read-only and returns its message count
	Open(ctx context.Context, name string) (uint32, error)
	// Fetch returns messages with sequence numbers in [from, to]
	Fetch(ctx context.Context, from, to uint32) ([]*RawMessage, error)
	// Logout ends the session and releases the connection
	Logout() error
}

// Dialer opens sessions
type Dialer interface {
	Dial(ctx context.Context, cfg Config) (Session, error)
}

// ConnectionError is the single error kind surfaced for any connect, login,
// list, select or fetch failure.
type ConnectionError struct {
	Email string
	Op    string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("imap %s failed for %s: %v", e.Op, e.Email, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError reports whether err is or wraps a ConnectionError
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

func wrap(cfg Config, op string, err error) error {
	if err == nil || IsConnectionError(err) {
		return err
	}
	return &ConnectionError{Email: cfg.Email, Op: op, Err: err}
}

// WithSession dials, runs fn and always logs out, whether fn succeeds or not.
// Errors from the session are reported as *ConnectionError.
func WithSession(ctx context.Context, d Dialer, cfg Config, fn func(Session) error) error {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session, err := d.Dial(ctx, cfg)
	if err != nil {
		return wrap(cfg, "connect", err)
	}
	defer func() {
		if err := session.Logout(); err != nil {
			log.Debug().Err(err).Str("email", cfg.Email).Msg("imap logout failed")
		}
	}()

	return wrap(cfg, "session", fn(session))
}

// ListTree returns the account's mailbox tree
func ListTree(ctx context.Context, d Dialer, cfg Config) ([]*Mailbox, error) {
	var tree []*Mailbox
	err := WithSession(ctx, d, cfg, func(s Session) error {
		var err error
		tree, err = s.ListMailboxes(ctx)
		return wrap(cfg, "list", err)
	})
	return tree, err
}

// FetchWindow opens name and fetches at most window of its newest messages.
// It returns the mailbox total alongside the messages.
func FetchWindow(ctx context.Context, d Dialer, cfg Config, name string, window uint32) ([]*RawMessage, uint32, error) {
	var (
		messages []*RawMessage
		total    uint32
	)
	err := WithSession(ctx, d, cfg, func(s Session) error {
		var err error
		total, err = s.Open(ctx, name)
		if err != nil {
			return wrap(cfg, "select", err)
		}
		if total == 0 {
			return nil
		}

		from, to := Window(total, window)
		messages, err = s.Fetch(ctx, from, to)
		return wrap(cfg, "fetch", err)
	})
	return messages, total, err
}

// Window returns the sequence range of the newest window messages of total:
// [max(1, total-window+1), total].
func Window(total, window uint32) (uint32, uint32) {
	if window == 0 || total <= window {
		return 1, total
	}
	return total - window + 1, total
}

// Validate checks that cfg can log in and list mailboxes without persisting anything
func Validate(ctx context.Context, d Dialer, cfg Config) error {
	_, err := ListTree(ctx, d, cfg)
	return err
}
