package note

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// A gift note is unlockable by anyone who knows its secret string. The
// ledger only stores the hash of the note, so the full note has to be
// rebuilt from its parts at consumption time. The codec below is the one
// place that mapping lives.

// DeriveSecretArray maps a gift secret to the word array the note script
// consumes. The mapping is total on non-empty ASCII strings, deterministic
// and reversible: the same secret always yields the same array, and
// SecretFromArray restores the original string.
func DeriveSecretArray(secret string) ([]uint64, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	words := make([]uint64, len(secret))
	for i := 0; i < len(secret); i++ {
		b := secret[i]
		if b == 0 || b > 127 {
			return nil, ErrNonASCIISecret
		}
		words[i] = uint64(b)
	}
	return words, nil
}

// SecretFromArray is the inverse of DeriveSecretArray.
func SecretFromArray(words []uint64) (string, error) {
	if len(words) == 0 {
		return "", ErrEmptySecret
	}
	var sb strings.Builder
	for _, w := range words {
		if w == 0 || w > 127 {
			return "", ErrInvalidSecretWord
		}
		sb.WriteByte(byte(w))
	}
	return sb.String(), nil
}

// Commitment computes the note commitment binding sender, faucet, amount,
// serial number and (for gift notes) the secret words. Two notes built
// from the same inputs always commit to the same value.
func Commitment(sender, faucetID string, amount uint64, serial SerialNumber, secret []uint64) []byte {
	h, _ := blake2b.New256(nil)
	writeLenPrefixed(h, []byte(sender))
	writeLenPrefixed(h, []byte(faucetID))
	var amt [8]byte
	binary.LittleEndian.PutUint64(amt[:], amount)
	h.Write(amt[:])
	h.Write(serial.Bytes())
	for _, w := range secret {
		var word [8]byte
		binary.LittleEndian.PutUint64(word[:], w)
		h.Write(word[:])
	}
	return h.Sum(nil)
}

func writeLenPrefixed(h interface{ Write([]byte) (int, error) }, b []byte) {
	var l [4]byte
	binary.LittleEndian.PutUint32(l[:], uint32(len(b)))
	h.Write(l[:])
	h.Write(b)
}

// CommitmentOf returns the commitment of an existing note, using its
// secret words when it is a gift note.
func CommitmentOf(n Note) ([]byte, error) {
	if len(n.Assets) == 0 {
		return nil, fmt.Errorf("%w: assets", ErrMissingField)
	}
	var secret []uint64
	if n.IsGift {
		words, err := DeriveSecretArray(n.SecretHash)
		if err != nil {
			return nil, err
		}
		secret = words
	}
	a := n.Assets[0]
	return Commitment(n.Sender, a.FaucetID, a.Amount, n.SerialNumber, secret), nil
}

// ReconstructGiftNote rebuilds the exact note created at issuance from the
// sender, asset, secret words and serial number. rawAmount must already be
// in base units, scaled with the asset's declared decimals.
func ReconstructGiftNote(sender, faucetID string, rawAmount uint64, secret []uint64, serial SerialNumber) (Note, error) {
	if sender == "" {
		return Note{}, fmt.Errorf("%w: sender", ErrMissingField)
	}
	if faucetID == "" {
		return Note{}, fmt.Errorf("%w: faucet id", ErrMissingField)
	}
	secretString, err := SecretFromArray(secret)
	if err != nil {
		return Note{}, err
	}
	return Note{
		Sender: sender,
		Assets: []Asset{{
			FaucetID: faucetID,
			Amount:   rawAmount,
		}},
		IsPrivate:        true,
		IsGift:           true,
		SecretHash:       secretString,
		SerialNumber:     serial,
		RecallableHeight: NonRecallable,
	}, nil
}

// ScaleToBaseUnits converts a decimal amount string to ledger base units
// using the asset's declared decimals. The conversion is exact: excess
// fractional digits and overflow are errors, never rounded or guessed.
func ScaleToBaseUnits(amount string, decimals uint8) (uint64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || amount == "." {
		return 0, ErrInvalidAmount
	}
	whole, frac := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, frac = amount[:i], amount[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	frac = strings.TrimRight(frac, "0")
	if len(frac) > int(decimals) {
		return 0, fmt.Errorf("%w: %q with %d decimals", ErrTooManyDecimals, amount, decimals)
	}

	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if !v.IsUint64() {
		return 0, ErrAmountOverflow
	}
	return v.Uint64(), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
