package frequense

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnparseableDate = errors.New("unparseable entry date")

// the portal encodes entry dates three different ways depending on the
// report. tried in a fixed priority order, first success wins.
var entryDateLayouts = []string{
	"2 Jan 2006",
	"1/2/2006 3:04:05 PM",
	"2006-01-02T15:04:05Z07:00",
}

func ParseEntryDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range entryDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, s)
}
