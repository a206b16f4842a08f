// Maps untrusted page identifiers to file names under a storage root.

package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

const upperHex = "0123456789ABCDEF"

// Encode percent-encodes id into a single path segment.
//
// Bytes outside [A-Za-z0-9-_.~] become %XX. A leading '.' is always escaped so
// the segment is never ".", ".." or a hidden file. The result never contains a
// path separator. Encode is injective; Decode reverses it.
func Encode(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		if isUnreserved(c) && (c != '.' || i != 0) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0xF])
	}
	return b.String()
}

// Decode reverses Encode.
func Decode(name string) (string, error) {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(name) {
			return "", fmt.Errorf("truncated escape at offset %d in %q", i, name)
		}
		hi, ok1 := unhex(name[i+1])
		lo, ok2 := unhex(name[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("invalid escape %q at offset %d", name[i:i+3], i)
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String(), nil
}

// Resolve returns the artifact path for id under root.
//
// For any non-empty id, filepath.Dir of the result is filepath.Clean(root).
// The empty id resolves to root itself; FileStore refuses to write or delete
// a directory so this cannot clobber the root.
func Resolve(root, id string) string {
	return filepath.Join(root, Encode(id))
}

// ValidateIdentifier rejects identifiers that are accepted by Resolve but are
// almost certainly caller bugs. Only enforced in strict mode.
func ValidateIdentifier(id string) error {
	if id == "" {
		return &Error{Op: "resolve", Kind: KindInvalidIdentifier, Err: fmt.Errorf("%w: empty", ErrInvalidIdentifier)}
	}
	return nil
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
