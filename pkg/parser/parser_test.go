package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestParsePlain(t *testing.T) {
	raw := "From: Jane Doe <jane@example.org>\r\n" +
		"To: me@example.com\r\n" +
		"Subject: Quarterly report\r\n" +
		"Date: Tue, 20 Feb 2024 09:30:00 +0000\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Numbers attached.\r\n"

	msg, err := Parse([]byte(raw), now)
	require.NoError(t, err)

	assert.Equal(t, "Quarterly report", msg.Subject)
	assert.Equal(t, "jane@example.org", msg.FromAddress)
	assert.Equal(t, "Jane Doe", msg.FromName)
	assert.True(t, msg.Date.Equal(time.Date(2024, 2, 20, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, "Numbers attached.", msg.Preview)
	assert.Contains(t, msg.Content, "Numbers attached.")
}

func TestParseDefaults(t *testing.T) {
	raw := "Content-Type: text/plain\r\n\r\nno headers here\r\n"

	msg, err := Parse([]byte(raw), now)
	require.NoError(t, err)

	assert.Equal(t, DefaultSubject, msg.Subject)
	assert.Equal(t, DefaultSender, msg.FromAddress)
	assert.Empty(t, msg.FromName)
	assert.Equal(t, now, msg.Date)
}

func TestParseBadDateUsesNow(t *testing.T) {
	raw := "From: a@example.org\r\nSubject: hi\r\nDate: yesterday-ish\r\n\r\nbody\r\n"

	msg, err := Parse([]byte(raw), now)
	require.NoError(t, err)
	assert.Equal(t, now, msg.Date)
}

func TestParsePrefersHTML(t *testing.T) {
	raw := "From: a@example.org\r\n" +
		"Subject: multipart\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=XYZ\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"plain version\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>html version</p>\r\n" +
		"--XYZ--\r\n"

	msg, err := Parse([]byte(raw), now)
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "<p>html version</p>")
	assert.Equal(t, "plain version", msg.Preview)
}

func TestPreviewTruncates(t *testing.T) {
	long := strings.Repeat("é", 300)
	preview := Preview(long)
	assert.Equal(t, PreviewLength, len([]rune(preview)))
	assert.Equal(t, "short", Preview("  short  "))
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(nil, now)
	assert.Error(t, err)
}
