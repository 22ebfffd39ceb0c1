// Package format renders money and timestamps the way the storefront shows them.
package format

import (
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
)

var saoPaulo = mustLocation("America/Sao_Paulo")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Money formats v as "R$ 1.234,56".
func Money(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := "R$ " + b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

// Date renders an ISO-8601 timestamp as "dd/mm/yyyy - hh:mm:ss" in São Paulo time.
// Unparseable input renders as an empty string.
func Date(iso string) string {
	if iso == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		return ""
	}
	return t.In(saoPaulo).Format("02/01/2006 - 15:04:05")
}
