package frequense

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"frequense-harvester/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// defaults observed on the portal before period discovery existed;
// used when the script block or its literal is malformed so a broken
// page never crashes the harvest
const (
	defaultPeriodID     = "100"
	defaultPeriodTypeID = "1"
)

var periodsRegex = regexp.MustCompile(`(?s)var periods *= *(\[.*?\]);`)
var accountIDRegex = regexp.MustCompile(`ID#\s*(\d+)`)

// scalar tolerates the portal emitting period ids as either JSON
// numbers or strings
type scalar string

func (s *scalar) UnmarshalJSON(b []byte) error {
	*s = scalar(bytes.Trim(b, `"`))
	return nil
}

type reportingPeriod struct {
	PeriodID     scalar `json:"periodId"`
	PeriodTypeID scalar `json:"periodTypeId"`
}

// the reports landing page embeds the list of reporting periods in a
// script block; the first entry is the current period. mirrors the
// portal's own period picker.
func reportingPeriodFromDoc(doc *goquery.Document) (periodID, periodTypeID string) {
	for _, script := range doc.Find("script").Nodes {
		text := htmlutil.GetText(script)
		if !strings.Contains(text, "var periods") {
			continue
		}
		groups := periodsRegex.FindStringSubmatch(text)
		if len(groups) < 2 {
			continue
		}

		var periods []reportingPeriod
		err := json.Unmarshal([]byte(groups[1]), &periods)
		if err != nil {
			slog.Warn("failed to decode reporting period list, falling back to defaults", "err", err)
			break
		}
		if len(periods) == 0 {
			break
		}
		return string(periods[0].PeriodID), string(periods[0].PeriodTypeID)
	}

	return defaultPeriodID, defaultPeriodTypeID
}

// the logged-in account's id appears as an "ID# NNNN" marker on the
// landing page; empty when absent (the portal then scopes the report
// to the session's own account)
func accountIDFromDoc(doc *goquery.Document) string {
	groups := accountIDRegex.FindStringSubmatch(doc.Text())
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}
