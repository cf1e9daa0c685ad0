package core

import (
	"fmt"
	"strings"
)

// Month identifies one calendar month by its three-letter key.
type Month string

const (
	Jan Month = "jan"
	Feb Month = "feb"
	Mar Month = "mar"
	Apr Month = "apr"
	May Month = "may"
	Jun Month = "jun"
	Jul Month = "jul"
	Aug Month = "aug"
	Sep Month = "sep"
	Oct Month = "oct"
	Nov Month = "nov"
	Dec Month = "dec"
)

// Months lists every month key in calendar order.
var Months = [12]Month{Jan, Feb, Mar, Apr, May, Jun, Jul, Aug, Sep, Oct, Nov, Dec}

var monthNames = map[Month]string{
	Jan: "January",
	Feb: "February",
	Mar: "March",
	Apr: "April",
	May: "May",
	Jun: "June",
	Jul: "July",
	Aug: "August",
	Sep: "September",
	Oct: "October",
	Nov: "November",
	Dec: "December",
}

var monthEmojis = map[Month]string{
	Jan: "\U0001F338",
	Feb: "\U0001F49D",
	Mar: "\U0001F337",
	Apr: "\U0001F33A",
	May: "\U0001F33B",
	Jun: "☀️",
	Jul: "\U0001F308",
	Aug: "\U0001F349",
	Sep: "\U0001F342",
	Oct: "\U0001F383",
	Nov: "\U0001F341",
	Dec: "❄️",
}

// ParseMonth accepts a month key, short name or full name in any case
// ("jan", "Jan", "January") and returns the month key.
func ParseMonth(s string) (Month, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) >= 3 {
		m := Month(s[:3])
		if m.Valid() && (len(s) == 3 || strings.ToLower(monthNames[m]) == s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
}

// Valid reports whether m is one of the twelve month keys.
func (m Month) Valid() bool {
	_, ok := monthNames[m]
	return ok
}

// Name returns the full display name ("January").
func (m Month) Name() string {
	return monthNames[m]
}

// Short returns the capitalised key ("Jan"), which is also the sheet name
// used by exported workbooks.
func (m Month) Short() string {
	if !m.Valid() {
		return ""
	}
	return strings.ToUpper(string(m[:1])) + string(m[1:])
}

func (m Month) Emoji() string {
	return monthEmojis[m]
}

// Index returns the zero-based calendar position, or -1 for an unknown key.
func (m Month) Index() int {
	for i, k := range Months {
		if k == m {
			return i
		}
	}
	return -1
}

// Number returns the two-digit month number ("01" for jan).
func (m Month) Number() string {
	if i := m.Index(); i >= 0 {
		return fmt.Sprintf("%02d", i+1)
	}
	return ""
}

func (m Month) String() string {
	return string(m)
}
