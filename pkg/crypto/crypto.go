package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

func HMAC(hashFunc func() hash.Hash, data []byte, secret []byte) string {
	h := hmac.New(hashFunc, secret)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHMAC compares a received hex signature with the expected one in
// constant time.
func VerifyHMAC(hashFunc func() hash.Hash, data, secret []byte, signature string) bool {
	expected := HMAC(hashFunc, data, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// RandInt64 returns a non-negative int64 from the OS entropy source. It
// panics if the source is unreadable.
func RandInt64() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}

	return int64(binary.BigEndian.Uint64(b[:]) &^ (1 << 63))
}
