package entities

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PlaceholderText is shown while a reply is awaited.
const PlaceholderText = "..."

// TranscriptEntry is a single displayed row. Pending marks the transient
// placeholder row that is removed when the next inbound frame arrives.
type TranscriptEntry struct {
	Role    Role
	Text    string
	Pending bool
}

// UserEntry builds a transcript row for a submitted user message.
func UserEntry(text string) TranscriptEntry {
	return TranscriptEntry{Role: RoleUser, Text: text}
}

// AssistantEntry builds a transcript row for an assistant reply.
func AssistantEntry(text string) TranscriptEntry {
	return TranscriptEntry{Role: RoleAssistant, Text: text}
}

// PlaceholderEntry builds the transient awaiting-reply row.
func PlaceholderEntry() TranscriptEntry {
	return TranscriptEntry{Role: RoleAssistant, Text: PlaceholderText, Pending: true}
}

// Transcript is the ordered list of displayed rows. It is mutated only from
// the coordinator's control loop, so it carries no locking.
type Transcript struct {
	entries []TranscriptEntry
}

// Append adds an entry at the end of the transcript.
func (t *Transcript) Append(entry TranscriptEntry) {
	t.entries = append(t.entries, entry)
}

// RemoveLastPlaceholder removes the most recently appended pending entry,
// if any, and reports whether one was removed.
func (t *Transcript) RemoveLastPlaceholder() bool {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Pending {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Entries returns a copy of the transcript rows.
func (t *Transcript) Entries() []TranscriptEntry {
	out := make([]TranscriptEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of rows, pending included.
func (t *Transcript) Len() int {
	return len(t.entries)
}
