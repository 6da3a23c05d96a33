package model

import (
	"fmt"
	"strconv"
	"strings"
)

const orderNumberPrefix = "ORD-"

// OrderNumberPrefix returns the common prefix of all order numbers issued in year.
func OrderNumberPrefix(year int) string {
	return fmt.Sprintf("%s%d-", orderNumberPrefix, year)
}

// FormatOrderNumber renders ORD-<year>-<sequence> with a zero-padded 4-digit sequence.
func FormatOrderNumber(year, seq int) string {
	return fmt.Sprintf("%s%04d", OrderNumberPrefix(year), seq)
}

// OrderSequence extracts the per-year sequence from an order number issued in year.
func OrderSequence(number string, year int) (int, bool) {
	rest, ok := strings.CutPrefix(number, OrderNumberPrefix(year))
	if !ok || rest == "" {
		return 0, false
	}
	seq, err := strconv.Atoi(rest)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

// NextOrderNumber derives the next number from the highest number issued in year, if any.
func NextOrderNumber(highest string, year int) string {
	seq, ok := OrderSequence(highest, year)
	if !ok {
		seq = 0
	}
	return FormatOrderNumber(year, seq+1)
}
