package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/mailsync/pkg/types"
)

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		at   time.Time
		want string
	}{
		{at: now.Add(-10 * time.Second), want: "just now"},
		{at: now.Add(-time.Minute), want: "1 minute ago"},
		{at: now.Add(-3 * time.Minute), want: "3 minutes ago"},
		{at: now.Add(-5 * time.Hour), want: "5 hours ago"},
		{at: now.Add(-48 * time.Hour), want: "2 days ago"},
		{at: now.Add(15 * time.Minute), want: "in 15 minutes"},
		{at: now.Add(20 * time.Second), want: "in under a minute"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RelativeTime(tt.at, now))
	}

	old := now.Add(-30 * 24 * time.Hour)
	assert.Equal(t, old.Local().Format("Jan 2, 2006 15:04"), RelativeTime(old, now))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "imap fe...", Truncate("imap fetch failed", 10))
	assert.Equal(t, "äöü...", Truncate("äöüäöüäöü", 6))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}

func TestTableMeasuresRenderedWidth(t *testing.T) {
	table := NewTable("ID", "STATUS")
	table.AddRow("job-1", RenderJobStatus(types.JobStatusCompleted))
	table.AddRow("job-22")

	assert.Equal(t, []int{len("job-22"), len("completed")}, table.widths)

	var buf bytes.Buffer
	table.Render(&buf)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[2], "job-1")
	assert.Contains(t, lines[3], "job-22")

	var empty bytes.Buffer
	NewTable("ID").Render(&empty)
	assert.Empty(t, empty.String())
}
