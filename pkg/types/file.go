package types

import (
	"bytes"
	"crypto/sha256"
	"unicode/utf8"
)

// binarySniffLen bounds how much of a file is inspected for NUL bytes
const binarySniffLen = 8000

// DiscoveredFile is a source file handed to the chunker
type DiscoveredFile struct {
	Path     string
	Content  []byte
	Language string // empty when the language is unknown
}

// Hash returns the SHA-256 of the raw file content
func (f *DiscoveredFile) Hash() [32]byte {
	return sha256.Sum256(f.Content)
}

// IsBinary reports whether the content looks like binary data
func (f *DiscoveredFile) IsBinary() bool {
	return IsBinary(f.Content)
}

// IsBinary reports whether content contains NUL bytes or is not valid UTF-8
// within the sniffed prefix
func IsBinary(content []byte) bool {
	sniff := content
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		return true
	}
	if utf8.Valid(sniff) {
		return false
	}
	// A multi-byte rune may have been cut at the sniff boundary.
	for i := 1; i < utf8.UTFMax && len(sniff) > i; i++ {
		if utf8.Valid(sniff[:len(sniff)-i]) {
			return false
		}
	}
	return true
}
