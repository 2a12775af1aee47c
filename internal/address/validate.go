package address

import (
	"regexp"
	"strings"

	"github.com/ModChain/outscript"
)

// Format names the BTC address family an address string matched.
type Format string

const (
	FormatNone    Format = ""
	FormatLegacy  Format = "legacy"
	FormatSegwit  Format = "segwit"
	FormatTaproot Format = "taproot"
	FormatEVM     Format = "evm"
)

var (
	btcLegacy  = regexp.MustCompile(`^[13][a-km-zA-HJ-NP-Z0-9]{24,33}$`)
	btcSegwit  = regexp.MustCompile(`^bc1[a-zA-HJ-NP-Z0-9]{39,59}$`)
	btcTaproot = regexp.MustCompile(`^bc1p[a-km-zA-HJ-NP-Z0-9]{58,89}$`)
	btcFake    = regexp.MustCompile(`^1[0-9]{6,}$`)
	ethAddress = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
)

// Validate reports whether address is a syntactically acceptable address of
// the given kind. It only checks shape; use Check for a decoding pass.
func Validate(address string, kind Kind) bool {
	return Detect(address, kind) != FormatNone
}

// Detect returns the format an address matched, or FormatNone. Taproot is
// tested before segwit because every taproot string also fits the wider
// segwit pattern.
func Detect(address string, kind Kind) Format {
	if address == "" {
		return FormatNone
	}
	switch kind {
	case BTC:
		if strings.Contains(address, "BTC") || strings.Contains(address, "btc") {
			return FormatNone
		}
		if btcFake.MatchString(address) {
			return FormatNone
		}
		switch {
		case btcLegacy.MatchString(address):
			return FormatLegacy
		case btcTaproot.MatchString(address):
			return FormatTaproot
		case btcSegwit.MatchString(address):
			return FormatSegwit
		}
	case ETH:
		if strings.Contains(address, "ETH") || strings.Contains(address, "eth") {
			return FormatNone
		}
		if ethAddress.MatchString(address) {
			return FormatEVM
		}
	}
	return FormatNone
}

// Check validates the shape and then decodes the address, so checksum and
// witness-version errors are caught as well.
func Check(address string, kind Kind) error {
	if !Validate(address, kind) {
		return &InvalidError{Address: address, Kind: kind, Reason: "format"}
	}
	var err error
	switch kind {
	case BTC:
		_, err = outscript.ParseBitcoinAddress(address)
	case ETH:
		_, err = outscript.ParseEvmAddress(address)
	}
	if err != nil {
		return &InvalidError{Address: address, Kind: kind, Reason: err.Error()}
	}
	return nil
}

// InvalidError describes why Check rejected an address.
type InvalidError struct {
	Address string
	Kind    Kind
	Reason  string
}

func (e *InvalidError) Error() string {
	return "invalid " + string(e.Kind) + " address " + e.Address + ": " + e.Reason
}
