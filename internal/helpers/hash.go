package helpers

import (
	"crypto/md5"
	"fmt"
	"os"
	"strings"
)

// Hash is an utility to determine a MD5 hash (acceptable as not used for security reasons).
func Hash(bytes []byte) string {
	h := md5.New()
	h.Write(bytes)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// HashLines determines the hash of lines joined by newlines (no trailing newline).
func HashLines(lines []string) string {
	return Hash([]byte(strings.Join(lines, "\n")))
}

// HashFromFile reads the file content to determine the hash.
func HashFromFile(path string) (string, error) {
	contentBytes, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Hash(contentBytes), nil
}
