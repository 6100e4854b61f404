// Package snowflake - id.go provides the ID type and its text, binary, JSON
// and SQL representations.

package snowflake

import (
	"database/sql/driver"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID is a Snowflake identifier.
//
// IDs are unsigned 64-bit integers. With a layout using at most 63 bits (all
// presets), every ID is also a non-negative int64.
//
// # Encoding Formats
//
//   - String: decimal
//   - Hex: lowercase hexadecimal
//   - Base58: Flickr alphabet, no ambiguous characters
//   - Base62: URL-safe alphanumeric
//
// # Interface Implementations
//
//   - json.Marshaler/Unmarshaler: decimal string, safe for JavaScript
//   - encoding.TextMarshaler/Unmarshaler: decimal
//   - encoding.BinaryMarshaler/Unmarshaler: 8 bytes big endian
//   - sql.Scanner/driver.Valuer: BIGINT
//   - fmt.Stringer
//
// ID carries no layout. Use Layout.Decompose or Generator.Decode to read
// its components.
type ID uint64

// ============================================================================
// Basic Conversions
// ============================================================================

// Uint64 returns the ID as a uint64.
func (id ID) Uint64() uint64 {
	return uint64(id)
}

// Int64 returns the ID as an int64. IDs above math.MaxInt64, which only
// 64-bit layouts produce, come back negative.
func (id ID) Int64() int64 {
	return int64(id)
}

// String returns the decimal representation of the ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Hex returns the lowercase hexadecimal representation without leading zeros.
//
// Example:
//
//	snowflake.ID(255).Hex() // "ff"
func (id ID) Hex() string {
	return encodeHex(uint64(id))
}

// Base58 returns the base58 representation using the Flickr alphabet
// (lowercase before uppercase).
//
// Characteristics:
//   - Case-sensitive
//   - At most 11 characters
//   - Best for IDs that people read or retype
func (id ID) Base58() string {
	return encodeBase58(uint64(id))
}

// Base62 returns the base62 representation (0-9, a-z, A-Z).
//
// Characteristics:
//   - Case-sensitive
//   - At most 11 characters
//   - URL-safe without escaping
//
// Example:
//
//	id.Base62() // use in URL: /api/users/1Bm4kXyT9aq
func (id ID) Base62() string {
	return encodeBase62(uint64(id))
}

// Format returns the ID encoded with the named format.
//
// Supported formats:
//   - "decimal", "dec", "d", "": decimal
//   - "hex", "x": hexadecimal
//   - "base58", "b58", "58": base58
//   - "base62", "b62", "62": base62
//
// Returns an error for any other name.
func (id ID) Format(format string) (string, error) {
	switch strings.ToLower(format) {
	case "decimal", "dec", "d", "":
		return id.String(), nil
	case "hex", "x":
		return id.Hex(), nil
	case "base58", "b58", "58":
		return id.Base58(), nil
	case "base62", "b62", "62":
		return id.Base62(), nil
	default:
		return "", fmt.Errorf("unknown ID format %q", format)
	}
}

// Formats lists the canonical names accepted by Format.
var Formats = []string{"decimal", "hex", "base58", "base62"}

// ============================================================================
// Binary Encoding
// ============================================================================

// Bytes returns the ID as an 8-byte big-endian integer. Big-endian byte
// order keeps the byte-wise order equal to the numeric order.
func (id ID) Bytes() [8]byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (id ID) MarshalBinary() ([]byte, error) {
	b := id.Bytes()
	return b[:], nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. data must be
// exactly 8 bytes.
func (id *ID) UnmarshalBinary(data []byte) error {
	if len(data) != 8 {
		return fmt.Errorf("invalid binary ID length: %d", len(data))
	}
	*id = ID(binary.BigEndian.Uint64(data))
	return nil
}

// ============================================================================
// JSON and Text Marshaling
// ============================================================================

// MarshalJSON implements json.Marshaler.
//
// The ID is written as a JSON string. JavaScript numbers only hold integers
// up to 2^53 exactly, and Snowflake IDs routinely exceed that.
//
// Example:
//
//	type User struct {
//	    ID snowflake.ID `json:"id"`
//	}
//	// {"id":"1234567890123456789"}
func (id ID) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, 22)
	b = append(b, '"')
	b = strconv.AppendUint(b, uint64(id), 10)
	b = append(b, '"')
	return b, nil
}

// UnmarshalJSON implements json.Unmarshaler. Both the string and the number
// form are accepted.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid snowflake ID %s: %w", data, err)
		}
	}

	v, err := ParseString(s)
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// MarshalText implements encoding.TextMarshaler using the decimal form.
func (id ID) MarshalText() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(id), 10), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	v, err := ParseString(string(text))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// ============================================================================
// SQL Database Integration
// ============================================================================

// Scan implements sql.Scanner.
//
// Supported types:
//   - int64: BIGINT / INTEGER columns (must be non-negative)
//   - []byte, string: decimal text in VARCHAR / TEXT columns
//   - nil: zero ID
//
// Example:
//
//	var id snowflake.ID
//	err := db.QueryRow("SELECT id FROM orders WHERE ref = ?", ref).Scan(&id)
func (id *ID) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*id = 0
	case int64:
		if v < 0 {
			return fmt.Errorf("cannot scan negative value %d into ID", v)
		}
		*id = ID(v)
	case []byte:
		parsed, err := ParseString(string(v))
		if err != nil {
			return err
		}
		*id = parsed
	case string:
		parsed, err := ParseString(v)
		if err != nil {
			return err
		}
		*id = parsed
	default:
		return fmt.Errorf("cannot scan %T into ID", value)
	}
	return nil
}

// Value implements driver.Valuer.
//
// The ID is stored as int64, which maps to BIGINT in PostgreSQL and MySQL and
// INTEGER in SQLite. IDs above math.MaxInt64 cannot be stored that way and
// return an error.
//
// Recommended schema:
//
//	CREATE TABLE orders (id BIGINT PRIMARY KEY, ...);
func (id ID) Value() (driver.Value, error) {
	if uint64(id) > math.MaxInt64 {
		return nil, fmt.Errorf("ID %d exceeds the int64 range of SQL BIGINT", uint64(id))
	}
	return int64(id), nil
}

// ============================================================================
// Parsing Functions
// ============================================================================

// ParseString parses a decimal string into an ID.
func ParseString(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake ID %q: %w", s, err)
	}
	return ID(v), nil
}

// ParseHex parses a hexadecimal string (either case, optional 0x prefix).
func ParseHex(s string) (ID, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := decodeHex(s)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

// ParseBase58 parses a base58 string produced by ID.Base58.
func ParseBase58(s string) (ID, error) {
	v, err := decodeBase58(s)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

// ParseBase62 parses a base62 string produced by ID.Base62.
func ParseBase62(s string) (ID, error) {
	v, err := decodeBase62(s)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

// Parse decodes s using the named format (see ID.Format).
func Parse(s, format string) (ID, error) {
	switch strings.ToLower(format) {
	case "decimal", "dec", "d", "":
		return ParseString(s)
	case "hex", "x":
		return ParseHex(s)
	case "base58", "b58", "58":
		return ParseBase58(s)
	case "base62", "b62", "62":
		return ParseBase62(s)
	default:
		return 0, fmt.Errorf("unknown ID format %q", format)
	}
}

// ParseAny tries decimal, base62, base58 and hex in that order and returns
// the first successful decode.
//
// The encodings overlap (every decimal string is also valid base62), so the
// result is only meaningful when the caller does not know the format. Use
// Parse when it is known.
func ParseAny(s string) (ID, error) {
	if id, err := ParseString(s); err == nil {
		return id, nil
	}
	if id, err := ParseBase62(s); err == nil {
		return id, nil
	}
	if id, err := ParseBase58(s); err == nil {
		return id, nil
	}
	if id, err := ParseHex(s); err == nil {
		return id, nil
	}
	return 0, fmt.Errorf("unable to parse %q as a snowflake ID (tried decimal, base62, base58, hex)", s)
}
