// Package gameid generates sortable table identifiers: UUIDv7 encoded as a
// 26-character Crockford base32 string, so IDs created later sort later.
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generate returns a new table ID.
func Generate() string {
	return generateAt(time.Now())
}

func generateAt(now time.Time) string {
	var uuid [16]byte

	// 48-bit millisecond timestamp, then version and variant bits over
	// random data per UUIDv7.
	ms := now.UnixMilli()
	uuid[0] = byte(ms >> 40)
	uuid[1] = byte(ms >> 32)
	uuid[2] = byte(ms >> 24)
	uuid[3] = byte(ms >> 16)
	uuid[4] = byte(ms >> 8)
	uuid[5] = byte(ms)

	if _, err := rand.Read(uuid[6:]); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	uuid[6] = (uuid[6] & 0x0f) | 0x70
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return encodeBase32(uuid)
}

// encodeBase32 packs the 128 bits into 26 base32 characters, 5 bits each.
func encodeBase32(data [16]byte) string {
	var b strings.Builder
	b.Grow(26)
	for i := 0; i < 26; i++ {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var value uint8
		if byteIndex < 16 {
			if bitIndex <= 3 {
				value = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
			} else {
				value = (data[byteIndex] << (bitIndex - 3)) & 0x1f
				if byteIndex+1 < 16 {
					value |= data[byteIndex+1] >> (11 - bitIndex)
				}
			}
		}
		b.WriteByte(alphabet[value])
	}
	return b.String()
}

// Validate checks that an ID is 26 valid base32 characters with a first
// character in 0-7, which bounds the value to 128 bits.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("table ID must be exactly 26 characters, got %d", len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("table ID first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		if !strings.ContainsRune(alphabet, rune(id[i])) {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}
