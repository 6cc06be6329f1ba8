package codec

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	DerivedKeySize          = 32
	DefaultDeriveIterations = 100000
)

// DeriveKey растягивает парольную фразу из конфига в ключ обфускации.
// Результат детерминирован: одна и та же фраза и соль дают тот же ключ на всех инстансах.
func DeriveKey(passphrase, salt string, iterations int) []byte {
	if iterations <= 0 {
		iterations = DefaultDeriveIterations
	}
	return pbkdf2.Key([]byte(passphrase), []byte(salt), iterations, DerivedKeySize, sha256.New)
}
