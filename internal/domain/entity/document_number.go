package entity

import (
	"fmt"
	"strings"
	"time"
)

// Prefijos de numeración de documentos.
const (
	PrefixPurchaseOrder = "PO"
	PrefixReceipt       = "GRN"
	PrefixDistribution  = "DST"
)

// NewDocumentNumber arma un número legible PREFIJO-AAAAMMDD-XXXXXX derivado del ID del documento.
func NewDocumentNumber(prefix string, now time.Time, id string) string {
	short := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(short) > 6 {
		short = short[:6]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), short)
}
