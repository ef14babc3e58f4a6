package mail

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageID(t *testing.T) {
	id := NewMessageID("dealer.example.com")
	assert.True(t, strings.HasPrefix(id, "<"))
	assert.True(t, strings.HasSuffix(id, "@dealer.example.com>"))

	other := NewMessageID("dealer.example.com")
	assert.NotEqual(t, id, other)
}

func TestBuildHeaders(t *testing.T) {
	headers := BuildHeaders("new@x.com", "parent@x.com")
	assert.Equal(t, "<new@x.com>", headers["Message-Id"])
	assert.Equal(t, "<parent@x.com>", headers["In-Reply-To"])
	assert.Equal(t, "<parent@x.com>", headers["References"])

	headers = BuildHeaders("<new@x.com>", "")
	assert.Equal(t, "<new@x.com>", headers["Message-Id"])
	_, hasReply := headers["In-Reply-To"]
	assert.False(t, hasReply)
}

func TestBuildReferencesAppendsAndDedupes(t *testing.T) {
	refs := BuildReferences([]string{"<a@x.com>", "<b@x.com>"}, "<c@x.com>")
	assert.Equal(t, []string{"<a@x.com>", "<b@x.com>", "<c@x.com>"}, refs)

	refs = BuildReferences([]string{"<a@x.com>", "<b@x.com>"}, "<b@x.com>")
	assert.Equal(t, []string{"<a@x.com>", "<b@x.com>"}, refs)

	refs = BuildReferences([]string{"a@x.com", "<a@x.com>"}, "")
	assert.Equal(t, []string{"<a@x.com>"}, refs)
}

func TestBuildReferencesEntryCap(t *testing.T) {
	existing := make([]string, 0, 14)
	for i := 0; i < 14; i++ {
		existing = append(existing, fmt.Sprintf("<m%02d@x.com>", i))
	}
	refs := BuildReferences(existing, "<last@x.com>")
	require.Len(t, refs, maxReferenceEntries)
	// Oldest entries are dropped, the reply parent is always kept.
	assert.Equal(t, "<m05@x.com>", refs[0])
	assert.Equal(t, "<last@x.com>", refs[len(refs)-1])
}

func TestBuildReferencesByteCap(t *testing.T) {
	long := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		long = append(long, fmt.Sprintf("<%s%d@x.com>", strings.Repeat("a", 220), i))
	}
	refs := BuildReferences(long, "<last@x.com>")
	assert.LessOrEqual(t, len(FormatReferences(refs)), maxReferenceBytes)
	assert.Equal(t, "<last@x.com>", refs[len(refs)-1])
	assert.NotEmpty(t, refs)
}

func TestBuildReferencesDropsOversizedEntries(t *testing.T) {
	// An inbound In-Reply-To is caller-controlled; a single id longer than
	// the byte cap must not leak into the header.
	huge := "<" + strings.Repeat("z", 1200) + "@x.com>"
	refs := BuildReferences(nil, huge)
	assert.Empty(t, refs)

	refs = BuildReferences([]string{"<a@x.com>", huge}, "<b@x.com>")
	assert.Equal(t, []string{"<b@x.com>"}, refs)
	assert.LessOrEqual(t, len(FormatReferences(refs)), maxReferenceBytes)
}

func TestFormatReferences(t *testing.T) {
	assert.Equal(t, "<a@x.com> <b@x.com>", FormatReferences([]string{"<a@x.com>", "<b@x.com>"}))
	assert.Equal(t, "", FormatReferences(nil))
}
