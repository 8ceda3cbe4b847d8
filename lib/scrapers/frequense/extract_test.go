package frequense

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const sampleReport = `
<html><body>
<table>
<tbody id="table-body">
<tr>
  <td data-colname="EntryDate">9 Mar 2026</td>
  <td data-colname="FullName">Ada Lovelace</td>
  <td data-colname="PublicProfile.Email">ada@example.com</td>
  <td data-colname="PublicProfile.Phone">+15551230001</td>
</tr>
<tr>
  <td data-colname="EntryDate">8 Mar 2026</td>
  <td data-colname="FullName">Grace Hopper</td>
</tr>
</tbody>
</table>
</body></html>`

func mustDoc(t *testing.T, markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestRows(t *testing.T) {
	doc := mustDoc(t, sampleReport)
	require.Equal(t, 2, Rows(doc).Length())
}

func TestRowsEmptyDocument(t *testing.T) {
	doc := mustDoc(t, "<html><body><p>nothing here</p></body></html>")
	require.Equal(t, 0, Rows(doc).Length())
}

func TestFieldReadsByColumnName(t *testing.T) {
	doc := mustDoc(t, sampleReport)
	row := Rows(doc).First()

	require.Equal(t, "Ada Lovelace", Field(row, "FullName"))
	require.Equal(t, "ada@example.com", Field(row, "PublicProfile.Email"))
	require.Equal(t, "9 Mar 2026", Field(row, "EntryDate"))
}

// a column the portal omitted reads as empty, never as an error or a
// dropped row
func TestFieldMissingColumn(t *testing.T) {
	doc := mustDoc(t, sampleReport)
	row := Rows(doc).Eq(1)

	require.Equal(t, "Grace Hopper", Field(row, "FullName"))
	require.Equal(t, "", Field(row, "PublicProfile.Email"))
	require.Equal(t, "", Field(row, "PublicProfile.Phone"))
}

func TestTimeField(t *testing.T) {
	doc := mustDoc(t, `
<table><tbody id="table-body">
<tr><td data-colname="EntryDate"><time>3/9/2026 1:02:03 PM</time></td></tr>
<tr><td data-colname="EntryDate">bare text</td></tr>
</tbody></table>`)

	rows := Rows(doc)
	require.Equal(t, "3/9/2026 1:02:03 PM", TimeField(rows.First(), "EntryDate"))
	require.Equal(t, "", TimeField(rows.Eq(1), "EntryDate"))
}

// extraction is a pure function of the markup
func TestExtractionIdempotent(t *testing.T) {
	extract := func() []Lead {
		doc := mustDoc(t, sampleReport)
		var leads []Lead
		Rows(doc).Each(func(_ int, row *goquery.Selection) {
			leads = append(leads, Lead{
				Name:  Field(row, "FullName"),
				Email: Field(row, "PublicProfile.Email"),
				Phone: normalizePhone(Field(row, "PublicProfile.Phone")),
			})
		})
		return leads
	}

	first := extract()
	second := extract()
	require.Empty(t, cmp.Diff(first, second))
	require.Equal(t, "15551230001", first[0].Phone)
}

func TestNormalizePhone(t *testing.T) {
	require.Equal(t, "15551230001", normalizePhone("+15551230001"))
	require.Equal(t, "15551230001", normalizePhone(" +15551230001 "))
	require.Equal(t, "15551230001", normalizePhone("15551230001"))
	require.Equal(t, "", normalizePhone(""))
}
