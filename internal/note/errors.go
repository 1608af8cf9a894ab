package note

import "errors"

// ErrEmptySecret is returned when a gift secret has no characters.
var ErrEmptySecret = errors.New("gift secret is empty")

// ErrNonASCIISecret is returned when a gift secret contains bytes outside
// the printable ASCII range.
var ErrNonASCIISecret = errors.New("gift secret contains non-ascii characters")

// ErrInvalidSecretWord is returned when a secret word array cannot be
// mapped back to an ASCII secret.
var ErrInvalidSecretWord = errors.New("secret word out of ascii range")

// ErrInvalidAmount is returned when an amount string cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrTooManyDecimals is returned when an amount carries more fractional
// digits than the asset declares.
var ErrTooManyDecimals = errors.New("amount has more fractional digits than the asset allows")

// ErrAmountOverflow is returned when a scaled amount does not fit the
// ledger's 64-bit base units.
var ErrAmountOverflow = errors.New("amount overflows base units")

// ErrMissingField is returned when a gift note cannot be reconstructed
// because a required input is empty.
var ErrMissingField = errors.New("missing gift note field")
