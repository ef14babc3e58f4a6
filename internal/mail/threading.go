package mail

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

const (
	// maxReferenceEntries caps the References chain depth.
	maxReferenceEntries = 10
	// maxReferenceBytes caps the concatenated header value, angle brackets
	// and separators included, to stay under mail-server line limits.
	maxReferenceBytes = 900
)

// NewMessageID mints a globally unique protocol Message-ID under the given
// sending domain. It must be generated before the transport call so the
// stored row and the wire header agree even if the send fails partway.
func NewMessageID(domain string) string {
	id := uuid.New()
	return fmt.Sprintf("<%s@%s>", hex.EncodeToString(id[:]), domain)
}

// BuildHeaders assembles the threading headers for an outbound message.
// Message-Id is always set; when replying, In-Reply-To and a seed
// References entry are added.
func BuildHeaders(messageID, inReplyTo string) map[string]string {
	headers := map[string]string{
		"Message-Id": CanonicalID(messageID),
	}
	if inReplyTo != "" {
		headers["In-Reply-To"] = CanonicalID(inReplyTo)
		headers["References"] = CanonicalID(inReplyTo)
	}
	return headers
}

// BuildReferences extends an existing reference chain with inReplyTo and
// enforces the entry and byte caps, dropping oldest entries first. The
// chain may come out empty when even the newest entry is oversized;
// In-Reply-To still carries the link in that case.
func BuildReferences(existing []string, inReplyTo string) []string {
	refs := make([]string, 0, len(existing)+1)
	seen := make(map[string]struct{}, len(existing)+1)
	for _, ref := range existing {
		id := CanonicalID(ref)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		refs = append(refs, id)
	}
	if id := CanonicalID(inReplyTo); id != "" {
		if _, dup := seen[id]; !dup {
			refs = append(refs, id)
		}
	}

	if len(refs) > maxReferenceEntries {
		refs = refs[len(refs)-maxReferenceEntries:]
	}
	for len(refs) > 0 && referencesLength(refs) > maxReferenceBytes {
		refs = refs[1:]
	}
	return refs
}

// FormatReferences renders the chain as a single header value.
func FormatReferences(refs []string) string {
	out := ""
	for i, ref := range refs {
		if i > 0 {
			out += " "
		}
		out += ref
	}
	return out
}

func referencesLength(refs []string) int {
	n := 0
	for i, ref := range refs {
		if i > 0 {
			n++ // separating space
		}
		n += len(ref)
	}
	return n
}
