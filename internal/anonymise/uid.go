package anonymise

import (
	"crypto/sha512"
	"fmt"
	"strings"
)

// HashUID deterministically pseudonymises a DICOM UID, grounded on
// pixl_dcmd/src/pixl_dcmd/main.py's get_encrypted_uid.
//
// The first four dot-segments (the org-root prefix) pass through
// unchanged. Each remaining segment is SHA-512(segment + salt)'d, its hex
// digest stripped of non-digit characters, then truncated to the original
// segment's length — with a leading zero allowed only for single-digit
// segments, stripped otherwise, so property P5 (segment length and
// no-leading-zero) holds by construction.
func HashUID(uid string, salt []byte) string {
	segments := strings.Split(uid, ".")
	if len(segments) <= 4 {
		return uid
	}

	prefix := strings.Join(segments[:4], ".")
	suffix := segments[4:]
	encoded := make([]string, len(suffix))

	for i, segment := range suffix {
		h := sha512.New()
		h.Write([]byte(segment))
		h.Write(salt)
		digits := digitsOnly(fmt.Sprintf("%x", h.Sum(nil)))

		if len(segment) == 1 {
			encoded[i] = truncate(digits, len(segment))
		} else {
			encoded[i] = truncate(strings.TrimLeft(digits, "0"), len(segment))
		}
	}

	return prefix + "." + strings.Join(encoded, ".")
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
