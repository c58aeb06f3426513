// Package money renders integer minor-unit amounts for display.
package money

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Format renders minor units as "$" + thousands-grouped major units + ".XX",
// e.g. 15990000 -> "$159,900.00". Arithmetic stays in integers.
func Format(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s$%s.%02d", sign, printer.Sprintf("%d", minor/100), minor%100)
}
