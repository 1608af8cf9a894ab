package note

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// SerialNumber is the 4-word seed of a note's commitment. It is generated
// once at creation and never reused.
type SerialNumber [4]uint64

// NewSerialNumber draws a fresh serial number from the system CSPRNG.
func NewSerialNumber() (SerialNumber, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return SerialNumber{}, fmt.Errorf("error generating serial number: %v", err)
	}
	var sn SerialNumber
	for i := range sn {
		sn[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return sn, nil
}

// Bytes returns the canonical little-endian encoding used by the
// commitment scheme.
func (s SerialNumber) Bytes() []byte {
	out := make([]byte, 32)
	for i, w := range s {
		binary.LittleEndian.PutUint64(out[i*8:], w)
	}
	return out
}

func (s SerialNumber) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", s[0], s[1], s[2], s[3])
}
