package shops

import (
	"regexp"
	"strings"

	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
)

// gstinPattern covers the published GSTIN layout: state code, PAN, entity
// number, the literal Z, and a checksum character.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

const gstinAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NormalizeGSTIN upper-cases and trims a raw GSTIN.
func NormalizeGSTIN(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidateGSTIN checks the format and the mod-36 checksum of a GSTIN.
func ValidateGSTIN(raw string) error {
	gstin := NormalizeGSTIN(raw)
	if len(gstin) != 15 {
		return pkgerrors.New(pkgerrors.CodeValidation, "gstin must be 15 characters")
	}
	if !gstinPattern.MatchString(gstin) {
		return pkgerrors.New(pkgerrors.CodeValidation, "gstin format invalid")
	}
	if checksumChar(gstin[:14]) != gstin[14] {
		return pkgerrors.New(pkgerrors.CodeValidation, "gstin checksum mismatch")
	}
	return nil
}

// checksumChar computes the mod-36 check character over the first 14 chars.
// Each character maps to its base-36 value, alternate positions are weighted
// 1 and 2, and the digit sum of each product feeds the running total.
func checksumChar(prefix string) byte {
	sum := 0
	factor := 1
	for i := 0; i < len(prefix); i++ {
		value := strings.IndexByte(gstinAlphabet, prefix[i])
		product := value * factor
		sum += product/36 + product%36
		if factor == 1 {
			factor = 2
		} else {
			factor = 1
		}
	}
	return gstinAlphabet[(36-sum%36)%36]
}
