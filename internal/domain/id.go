package domain

import (
	"database/sql/driver"
	"encoding/hex"
	"errors"
	"fmt"
)

// ID is a fixed-size 32-byte identifier for zones, corridors, stations and redemptions.
type ID [32]byte

// ErrInvalidID is returned when an identifier cannot be decoded.
var ErrInvalidID = errors.New("invalid id: expected 64 hex characters")

// ParseID decodes a hex-encoded identifier.
func ParseID(s string) (ID, error) {
	var id ID
	if len(s) != hex.EncodedLen(len(id)) {
		return ID{}, ErrInvalidID
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return ID{}, ErrInvalidID
	}
	return id, nil
}

// MustParseID is like ParseID but panics on malformed input. Intended for fixtures.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the lowercase hex encoding.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the identifier is all zero bytes.
func (id ID) IsZero() bool {
	return id == ID{}
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value stores the identifier as BYTEA.
func (id ID) Value() (driver.Value, error) {
	return id[:], nil
}

// Scan reads a BYTEA column into the identifier.
func (id *ID) Scan(src any) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("scan id: unsupported type %T", src)
	}
	if len(b) != len(id) {
		return fmt.Errorf("scan id: expected %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return nil
}

// Address identifies an account: the admin, a fleet operator, a station owner or a driver.
type Address string

// IsZero reports whether the address is empty.
func (a Address) IsZero() bool {
	return a == ""
}
