// Package snowflake - encoding.go converts IDs to and from their compact text
// forms.
//
// # Supported Encodings
//
//   - Base58: Flickr alphabet (lowercase first), no confusing characters (0, O, I, l)
//   - Base62: URL-safe alphanumeric
//   - Hex: 4 bits/char, encoded with bitshifting
//
// Decoding uses 256-entry lookup tables built once at init and read-only
// afterwards, so every function here is safe for concurrent use.

package snowflake

import (
	"errors"
	"math"
)

// Maximum string lengths for each encoding of a 64-bit ID.
// Longer inputs are rejected before decoding.
const (
	MaxBase58Len = 11 // ceil(log58(2^64))
	MaxBase62Len = 11 // ceil(log62(2^64))
	MaxHexLen    = 16 // 64 / 4
)

// Encoding errors returned when parsing invalid encoded strings.
var (
	ErrInvalidBase58   = errors.New("invalid base58 encoding")
	ErrInvalidBase62   = errors.New("invalid base62 encoding")
	ErrInvalidHex      = errors.New("invalid hexadecimal encoding")
	ErrEmptyString     = errors.New("empty encoded string")
	ErrStringTooLong   = errors.New("encoded string exceeds maximum length")
	ErrIntegerOverflow = errors.New("decoded value overflows 64 bits")
)

// Base58 uses the Flickr alphabet: lowercase before uppercase, and no 0, O, I or l.
// It is not interchangeable with the Bitcoin alphabet, which puts uppercase first.
const encodeBase58Map = "123456789abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

// Base62 uses 0-9, a-z, A-Z. It needs no escaping in URLs or file names.
const encodeBase62Map = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const encodeHexMap = "0123456789abcdef"

// invalidChar marks bytes that are not part of an alphabet.
const invalidChar = 0xFF

var (
	decodeBase58Map [256]byte
	decodeBase62Map [256]byte
	decodeHexMap    [256]byte
)

func init() {
	for i := 0; i < 256; i++ {
		decodeBase58Map[i] = invalidChar
		decodeBase62Map[i] = invalidChar
		decodeHexMap[i] = invalidChar
	}

	for i := 0; i < len(encodeBase58Map); i++ {
		decodeBase58Map[encodeBase58Map[i]] = byte(i)
	}
	for i := 0; i < len(encodeBase62Map); i++ {
		decodeBase62Map[encodeBase62Map[i]] = byte(i)
	}
	for i := 0; i < len(encodeHexMap); i++ {
		decodeHexMap[encodeHexMap[i]] = byte(i)
		if c := encodeHexMap[i]; c >= 'a' && c <= 'f' {
			decodeHexMap[c-'a'+'A'] = byte(i)
		}
	}
}

// encodeRadix encodes v with an alphabet whose length is the radix.
// Zero encodes as the first character of the alphabet.
func encodeRadix(v uint64, alphabet string, maxLen int) string {
	radix := uint64(len(alphabet))
	if v < radix {
		return string(alphabet[v])
	}

	// fill from the end so no reverse pass is needed
	buf := make([]byte, maxLen)
	i := maxLen
	for v > 0 {
		i--
		buf[i] = alphabet[v%radix]
		v /= radix
	}
	return string(buf[i:])
}

// decodeRadix is the inverse of encodeRadix.
//
// Validation: rejects empty input, input longer than maxLen, characters
// outside the alphabet, and values that do not fit 64 bits.
func decodeRadix(s string, table *[256]byte, radix uint64, maxLen int, invalid error) (uint64, error) {
	if len(s) == 0 {
		return 0, ErrEmptyString
	}
	if len(s) > maxLen {
		return 0, ErrStringTooLong
	}

	var v uint64
	for i := 0; i < len(s); i++ {
		d := table[s[i]]
		if d == invalidChar {
			return 0, invalid
		}
		if v > (math.MaxUint64-uint64(d))/radix {
			return 0, ErrIntegerOverflow
		}
		v = v*radix + uint64(d)
	}
	return v, nil
}

func encodeBase58(v uint64) string {
	return encodeRadix(v, encodeBase58Map, MaxBase58Len)
}

func decodeBase58(s string) (uint64, error) {
	return decodeRadix(s, &decodeBase58Map, 58, MaxBase58Len, ErrInvalidBase58)
}

func encodeBase62(v uint64) string {
	return encodeRadix(v, encodeBase62Map, MaxBase62Len)
}

func decodeBase62(s string) (uint64, error) {
	return decodeRadix(s, &decodeBase62Map, 62, MaxBase62Len, ErrInvalidBase62)
}

// encodeHex encodes v as lowercase hex without leading zeros, 4 bits at a time.
func encodeHex(v uint64) string {
	if v < 16 {
		return string(encodeHexMap[v])
	}

	var buf [MaxHexLen]byte
	i := MaxHexLen
	for v > 0 {
		i--
		buf[i] = encodeHexMap[v&0xF]
		v >>= 4
	}
	return string(buf[i:])
}

// decodeHex accepts upper and lower case digits. An optional "0x" prefix is
// not accepted; strip it before calling.
func decodeHex(s string) (uint64, error) {
	if len(s) == 0 {
		return 0, ErrEmptyString
	}
	if len(s) > MaxHexLen {
		return 0, ErrStringTooLong
	}

	var v uint64
	for i := 0; i < len(s); i++ {
		d := decodeHexMap[s[i]]
		if d == invalidChar {
			return 0, ErrInvalidHex
		}
		v = v<<4 | uint64(d)
	}
	return v, nil
}
