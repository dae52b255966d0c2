package util

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const requestIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID returns a fresh 21-character nanoid, used for document and
// chunk identities.
func NewID() (string, error) {
	return gonanoid.New()
}

// NewRequestID returns a short id tagging one crawl run in logs and
// result metadata. Falls back to a timestamp on entropy failure so a
// request is never left untagged.
func NewRequestID() string {
	id, err := gonanoid.Generate(requestIDAlphabet, 12)
	if err != nil {
		return fmt.Sprintf("req_%x", time.Now().UnixNano())
	}
	return "req_" + id
}
