package auth

import "math/rand/v2"

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// CodeGenerator returns a fresh auth code.
type CodeGenerator func() string

// RandomCode draws length symbols uniformly from [A-Za-z0-9].
// Codes are not guaranteed unique; redemption always pairs them with an auth id.
func RandomCode(length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(buf)
}
