package mailbox

import (
	"context"
	"fmt"
	"sync"
)

// FakeDialer is an in-memory Dialer for tests
type FakeDialer struct {
	mu sync.Mutex

	Tree      []*Mailbox
	Mailboxes map[string][]*RawMessage // server name -> messages in sequence order

	DialErr  error
	ListErr  error
	FetchErr error

	Dials   int
	Logouts int
	Fetched [][2]uint32 // requested sequence ranges
}

func NewFakeDialer() *FakeDialer {
	return &FakeDialer{Mailboxes: make(map[string][]*RawMessage)}
}

func (d *FakeDialer) Dial(ctx context.Context, cfg Config) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Dials++
	if d.DialErr != nil {
		return nil, d.DialErr
	}
	return &fakeSession{dialer: d}, nil
}

func (d *FakeDialer) LogoutCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Logouts
}

type fakeSession struct {
	dialer   *FakeDialer
	selected string
}

func (s *fakeSession) ListMailboxes(ctx context.Context) ([]*Mailbox, error) {
	if s.dialer.ListErr != nil {
		return nil, s.dialer.ListErr
	}
	return s.dialer.Tree, nil
}

func (s *fakeSession) Open(ctx context.Context, name string) (uint32, error) {
	s.dialer.mu.Lock()
	defer s.dialer.mu.Unlock()

	messages, ok := s.dialer.Mailboxes[name]
	if !ok {
		return 0, fmt.Errorf("mailbox %q does not exist", name)
	}
	s.selected = name
	return uint32(len(messages)), nil
}

func (s *fakeSession) Fetch(ctx context.Context, from, to uint32) ([]*RawMessage, error) {
	s.dialer.mu.Lock()
	defer s.dialer.mu.Unlock()

	s.dialer.Fetched = append(s.dialer.Fetched, [2]uint32{from, to})
	if s.dialer.FetchErr != nil {
		return nil, s.dialer.FetchErr
	}

	messages := s.dialer.Mailboxes[s.selected]
	var out []*RawMessage
	for seq := from; seq <= to && int(seq) <= len(messages); seq++ {
		msg := *messages[seq-1]
		msg.SeqNum = seq
		out = append(out, &msg)
	}
	return out, nil
}

func (s *fakeSession) Logout() error {
	s.dialer.mu.Lock()
	defer s.dialer.mu.Unlock()
	s.dialer.Logouts++
	return nil
}
