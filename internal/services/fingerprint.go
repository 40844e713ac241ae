package services

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// digestLength is the number of hex characters kept from the digest. MD5 is
// fine here: fingerprints detect change, they are not a security boundary.
const digestLength = 16

// fingerprintSeparator joins requirement/doc tuples. Colons inside content are
// harmless; the separator only needs to keep adjacent tuples apart.
const fingerprintSeparator = "|"

type RequirementItem struct {
	ID      string
	Title   string
	Content string
}

type ReferenceDocItem struct {
	ID   string
	Text string
}

func digest(payload []byte) string {
	sum := md5.Sum(payload)
	return hex.EncodeToString(sum[:])[:digestLength]
}

// FingerprintProfile hashes the profile field map with keys serialized in
// sorted order. A nil and an empty map both fingerprint to the empty string,
// never to a hash of "{}": absence and emptiness are deliberately collapsed.
func FingerprintProfile(fields map[string]*string) string {
	if len(fields) == 0 {
		return ""
	}
	// encoding/json emits map keys in sorted order, which gives us the
	// canonical serialization for free.
	raw, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return digest(raw)
}

// FingerprintRequirements hashes the requirement set independent of input
// order: items are sorted by ID, so reordering without an ID change is a
// no-op while any title or content edit changes the digest.
func FingerprintRequirements(items []RequirementItem) string {
	if len(items) == 0 {
		return ""
	}
	sorted := make([]RequirementItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	parts := make([]string, 0, len(sorted))
	for _, item := range sorted {
		parts = append(parts, item.ID+":"+item.Title+":"+item.Content)
	}
	return digest([]byte(strings.Join(parts, fingerprintSeparator)))
}

// FingerprintReferenceDocs follows the same pattern as requirements over
// (id, extracted text) tuples.
func FingerprintReferenceDocs(items []ReferenceDocItem) string {
	if len(items) == 0 {
		return ""
	}
	sorted := make([]ReferenceDocItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	parts := make([]string, 0, len(sorted))
	for _, item := range sorted {
		parts = append(parts, item.ID+":"+item.Text)
	}
	return digest([]byte(strings.Join(parts, fingerprintSeparator)))
}

// FingerprintQuestion hashes the raw question text; empty text fingerprints
// to the empty string.
func FingerprintQuestion(text string) string {
	if text == "" {
		return ""
	}
	return digest([]byte(text))
}
