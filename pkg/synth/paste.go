package synth

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/shopspring/decimal"
)

// maxPasteExponent bounds the exponent a pasted number may carry; the
// canonical form spells out every digit, so "1e5000000" would expand to
// five million characters.
const maxPasteExponent = 16383

// PasteNumeric canonicalizes a value pasted into a numeric column.
//
// The text is parsed as an arbitrary-precision decimal and stored in its
// canonical form ("007" becomes "7", "1.50" becomes "1.5", "1e3" becomes
// "1000"). Text that is not a number, or whose exponent is beyond
// maxPasteExponent, is dropped and prev is returned: the paste is not
// applied and no error is raised.
func PasteNumeric(prev core.CellValue, pasted string, logger *slog.Logger) core.CellValue {
	d, err := decimal.NewFromString(strings.TrimSpace(pasted))
	if err == nil && (d.Exponent() > maxPasteExponent || d.Exponent() < -maxPasteExponent) {
		err = fmt.Errorf("exponent %d out of range", d.Exponent())
	}
	if err != nil {
		if logger != nil {
			logger.Debug("numeric paste rejected, keeping previous value",
				slog.String("pasted", pasted),
				slog.Any("error", err),
				slog.String("previous", prev.Display()))
		}
		return prev
	}
	return core.Concrete(d.String())
}
