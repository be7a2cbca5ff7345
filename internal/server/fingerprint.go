package server

import (
	"fmt"
	"strings"
)

// parseFingerprint splits a "{base}_v{hash}.{ext}" filename into its parts.
// The base may itself contain "_v", so the split takes the last occurrence;
// hashes are hex and never contain dots, so the extension split takes the
// last dot after it.
func parseFingerprint(file string) (base, hash, ext string, err error) {
	dot := strings.LastIndexByte(file, '.')
	if dot < 0 || dot == len(file)-1 {
		return "", "", "", fmt.Errorf("missing extension: %q", file)
	}
	ext = file[dot+1:]

	marker := strings.LastIndex(file[:dot], "_v")
	if marker < 0 {
		return "", "", "", fmt.Errorf("missing version marker: %q", file)
	}
	base = file[:marker]
	hash = file[marker+2 : dot]

	if base == "" || hash == "" {
		return "", "", "", fmt.Errorf("malformed fingerprint: %q", file)
	}
	return base, hash, ext, nil
}
