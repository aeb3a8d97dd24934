package admission

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// AnonymousEmail stands in for the email when a submitter gave none.
const AnonymousEmail = "anonymous"

// Fingerprint hashes the normalized submission content. Kind and email are
// compared case-insensitively; surrounding whitespace never matters.
func Fingerprint(kind, email, subject, message string) string {
	normalized := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(kind)),
		strings.ToLower(strings.TrimSpace(email)),
		strings.TrimSpace(subject),
		strings.TrimSpace(message),
	}, "|")
	digest := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(digest[:])
}
