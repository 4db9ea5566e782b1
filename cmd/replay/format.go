package main

import "github.com/shopspring/decimal"

// optDecimal renders a possibly-missing decimal for tabular output.
func optDecimal(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
