// Package report renders emissions summaries for humans.
package report

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatFloat formats f with precision decimals and thousand separators.
// FormatFloat(1234.567, 2) returns "1,234.57".
func FormatFloat(f float64, precision int) string {
	multiplier := math.Pow(10, float64(precision))
	rounded := math.Round(f*multiplier) / multiplier

	formatted := strconv.FormatFloat(rounded, 'f', precision, 64)
	intPart, decimals, _ := strings.Cut(formatted, ".")

	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return formatted
	}

	grouped := printer.Sprintf("%d", n)
	if n == 0 && strings.HasPrefix(intPart, "-") {
		grouped = "-" + grouped
	}
	if decimals == "" {
		return grouped
	}
	return grouped + "." + decimals
}

// FormatKg formats a mass of CO2e in kilograms.
func FormatKg(kg float64) string {
	return FormatFloat(kg, 2) + " kgCO2e"
}

// FormatPercent formats a share between 0 and 1.
func FormatPercent(share float64) string {
	return FormatFloat(share*100, 0) + "%"
}
