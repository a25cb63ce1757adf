package matchmakingservice

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var compactTimePattern = regexp.MustCompile(`(\d{1,2})(\d{2})(am|pm)`)

// ScheduleParser turns a requested bout time into an instant.
type ScheduleParser struct {
	w *when.Parser
}

// NewScheduleParser creates a parser with English and common rules.
func NewScheduleParser() *ScheduleParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &ScheduleParser{w: w}
}

// Parse resolves input relative to now. RFC3339 input is taken as-is; anything
// else goes through natural-language parsing in loc. The result must be after now.
func (p *ScheduleParser) Parse(input string, now time.Time, loc *time.Location) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrInvalidSchedule)
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return checkFuture(t.UTC(), now)
	}

	normalized := strings.ToLower(input)
	normalized = strings.ReplaceAll(normalized, "today ", "today at ")
	normalized = compactTimePattern.ReplaceAllString(normalized, "$1:$2 $3")

	r, err := p.w.Parse(normalized, now.In(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: could not recognize %q", ErrInvalidSchedule, input)
	}
	return checkFuture(r.Time.UTC(), now)
}

func checkFuture(t, now time.Time) (time.Time, error) {
	t = t.Truncate(time.Minute)
	if !t.After(now) {
		return time.Time{}, fmt.Errorf("%w: %s is not in the future", ErrInvalidSchedule, t.Format(time.RFC3339))
	}
	return t, nil
}

// locationFor maps a competitor's symbolic timezone to a fixed-offset location.
func locationFor(name string) *time.Location {
	offset := matchmakingdomain.TimezoneOffset(name)
	if offset == 0 {
		return time.UTC
	}
	return time.FixedZone(strings.ToUpper(strings.TrimSpace(name)), int(offset*3600))
}
