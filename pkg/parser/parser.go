package parser

import (
	"bytes"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
)

const (
	DefaultSubject = "(No Subject)"
	DefaultSender  = "unknown@example.com"
	PreviewLength  = 250
)

// Message holds the structured fields decoded from one raw message
type Message struct {
	Subject     string
	FromAddress string
	FromName    string
	Date        time.Time
	Text        string
	HTML        string
	Preview     string
	Content     string // HTML when present, otherwise text
}

// Parse decodes raw RFC 5322 bytes. Missing or unparseable headers fall back
// to defaults; now is used when the date cannot be read. An error is returned
// only when the message structure cannot be read at all.
func Parse(raw []byte, now time.Time) (*Message, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("empty message")
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read envelope: %w", err)
	}

	msg := &Message{
		Subject:     strings.TrimSpace(env.GetHeader("Subject")),
		FromAddress: DefaultSender,
		Date:        now,
		Text:        env.Text,
		HTML:        env.HTML,
	}
	if msg.Subject == "" {
		msg.Subject = DefaultSubject
	}

	if from, err := env.AddressList("From"); err == nil && len(from) > 0 && from[0].Address != "" {
		msg.FromAddress = from[0].Address
		msg.FromName = from[0].Name
	}

	if date, err := mail.ParseDate(env.GetHeader("Date")); err == nil {
		msg.Date = date
	}

	msg.Preview = Preview(msg.Text)
	msg.Content = msg.HTML
	if msg.Content == "" {
		msg.Content = msg.Text
	}

	return msg, nil
}

// Preview returns the first PreviewLength characters of text
func Preview(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= PreviewLength {
		return string(runes)
	}
	return string(runes[:PreviewLength])
}
