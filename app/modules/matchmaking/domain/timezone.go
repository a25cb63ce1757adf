package matchmakingdomain

import (
	"math"
	"strings"
)

// timezoneOffsets maps symbolic timezone names to UTC offsets in hours.
var timezoneOffsets = map[string]float64{
	"UTC":  0,
	"GMT":  0,
	"WET":  0,
	"BST":  1,
	"CET":  1,
	"CEST": 2,
	"EET":  2,
	"EEST": 3,
	"MSK":  3,
	"GST":  4,
	"PKT":  5,
	"IST":  5.5,
	"ICT":  7,
	"WIB":  7,
	"SGT":  8,
	"PHT":  8,
	"AWST": 8,
	"JST":  9,
	"KST":  9,
	"ACST": 9.5,
	"AEST": 10,
	"AEDT": 11,
	"NZST": 12,
	"NZDT": 13,
	"BRT":  -3,
	"ART":  -3,
	"AST":  -4,
	"EDT":  -4,
	"EST":  -5,
	"CDT":  -5,
	"CST":  -6,
	"MDT":  -6,
	"MST":  -7,
	"PDT":  -7,
	"PST":  -8,
	"AKST": -9,
	"HST":  -10,
}

// TimezoneOffset resolves a symbolic timezone name. Unknown names resolve to 0.
func TimezoneOffset(name string) float64 {
	return timezoneOffsets[strings.ToUpper(strings.TrimSpace(name))]
}

// TimezoneGap is the absolute offset difference in hours between two names.
func TimezoneGap(a, b string) float64 {
	return math.Abs(TimezoneOffset(a) - TimezoneOffset(b))
}
