package util

import (
	"bytes"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// AddressLength is the length of a ledger account address in bytes.
const AddressLength = 32

// Address is a 32-byte ledger account address. The zero value is the default
// address, which is never a valid account.
type Address [AddressLength]byte

// ZeroAddress is the default address. Streams can never have it as a sender,
// recipient or mint.
var ZeroAddress = Address{}

// NewAddressFromBytes creates an Address from a 32-byte slice.
func NewAddressFromBytes(b []byte) (Address, error) {
	if len(b) != AddressLength {
		return Address{}, errors.Errorf("invalid address length: expected %d bytes, got %d", AddressLength, len(b))
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// NewAddressFromBase58 parses a base58-encoded address.
func NewAddressFromBase58(s string) (Address, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return Address{}, errors.Wrapf(err, "invalid base58 address %q", s)
	}
	return NewAddressFromBytes(b)
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte {
	return a[:]
}

// String returns the base58 representation of the address.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// IsZero reports whether the address is the default address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Equal reports whether two addresses are the same.
func (a Address) Equal(other Address) bool {
	return bytes.Equal(a[:], other[:])
}
