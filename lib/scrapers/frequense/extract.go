package frequense

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// report rows live under a stable table body id; per-column values
// are addressed by the data-colname attribute rather than column
// position, so the portal can reorder columns without breaking us
const rowSelector = "#table-body tr"

func Rows(doc *goquery.Document) *goquery.Selection {
	return doc.Find(rowSelector)
}

// Field reads one column of a report row. A missing column is not an
// error: the portal legitimately omits optional fields, absence is
// modeled as the empty string.
func Field(row *goquery.Selection, colname string) string {
	return strings.TrimSpace(row.Find(colSelector(colname, false)).First().Text())
}

// TimeField reads a column whose value is wrapped in a <time> element.
func TimeField(row *goquery.Selection, colname string) string {
	return strings.TrimSpace(row.Find(colSelector(colname, true)).First().Text())
}

func colSelector(colname string, timeTag bool) string {
	sel := fmt.Sprintf("td[data-colname='%s']", colname)
	if timeTag {
		sel += " time"
	}
	return sel
}

// emitted phone numbers drop the leading plus, for every entity kind
func normalizePhone(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "+")
}
