package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	charset      = "abcdefghijklmnopqrstuvwxyz0123456789"
	codeCharset  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	maxDrawTries = 16
)

// GenerateRandomID generates a random lowercase alphanumeric string of length n
func GenerateRandomID(n int) string {
	return randomString(charset, n)
}

// GenerateJoinCode generates an uppercase code without look-alike characters (0/O, 1/I)
func GenerateJoinCode(n int) string {
	return randomString(codeCharset, n)
}

// GenerateUnique draws values from gen until one is not taken.
// It gives up after a fixed number of attempts instead of looping forever
// when the namespace is exhausted.
func GenerateUnique(gen func() string, taken func(string) bool) (string, error) {
	for i := 0; i < maxDrawTries; i++ {
		candidate := gen()
		if candidate == "" {
			continue
		}
		if !taken(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free identifier after %d attempts", maxDrawTries)
}

func randomString(alphabet string, n int) string {
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return ""
		}
		b[i] = alphabet[num.Int64()]
	}
	return string(b)
}
