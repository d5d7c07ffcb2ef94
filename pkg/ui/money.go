package ui

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// moneyPrinter groups thousands ("1,250,000").
var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney renders a dollar amount with thousands separators.
// Whole amounts drop the cents.
func FormatMoney(amount float64) string {
	if amount == math.Trunc(amount) {
		return moneyPrinter.Sprintf("$%.0f", amount)
	}
	return moneyPrinter.Sprintf("$%.2f", amount)
}

// FormatBudgetRange renders a min/max budget pair.
func FormatBudgetRange(min, max float64) string {
	return FormatMoney(min) + " - " + FormatMoney(max)
}

// FormatScore renders an opportunity score without trailing zeros
// ("145", "62.5").
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// FormatRisk renders a risk score with one decimal ("4.0").
func FormatRisk(risk float64) string {
	return strconv.FormatFloat(risk, 'f', 1, 64)
}

// FormatMonths renders a duration in months ("10 mo", "7.5 mo").
func FormatMonths(months float64) string {
	return strconv.FormatFloat(months, 'f', -1, 64) + " mo"
}
