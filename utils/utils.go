package utils

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Decimal places applied at the boundary of every public result.
const (
	RatePrecision  = 4
	MoneyPrecision = 2
	DaysPrecision  = 2
)

// Round rounds x half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}

// RoundRate rounds a fraction or rate to four decimals.
func RoundRate(x float64) float64 { return Round(x, RatePrecision) }

// RoundMoney rounds a currency amount to two decimals.
func RoundMoney(x float64) float64 { return Round(x, MoneyPrecision) }

// RoundDays rounds a day count to two decimals.
func RoundDays(x float64) float64 { return Round(x, DaysPrecision) }

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Percent formats a fraction as a percentage with two decimals, e.g. 0.1234 -> "12.34%".
func Percent(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}

var moneyPrinter = message.NewPrinter(language.English)

// Money formats a currency amount with grouping, e.g. 1234.5 -> "$1,234.50".
func Money(amount float64) string {
	return moneyPrinter.Sprintf("$%.2f", amount)
}

// Days formats a day count with two decimals.
func Days(days float64) string {
	return fmt.Sprintf("%.2f days", days)
}
