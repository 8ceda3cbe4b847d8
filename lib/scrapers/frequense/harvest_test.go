package frequense

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"frequense-harvester/lib/telemetry"

	"github.com/stretchr/testify/require"
)

// reference time for every scenario: fixtures and windows derive
// their dates from this instead of the wall clock
var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const loginToken = "login-token-1"
const teamLeadsToken = "team-leads-token-1"
const companyReportsToken = "company-reports-token-1"

// fakePortal is an in-process stand-in for the Frequense portal:
// login handshake, landing pages with per-page tokens, report query
// endpoints and the customer enrichment endpoints.
type fakePortal struct {
	srv *httptest.Server

	invalidLogin       bool
	leadsQueryHTML     string
	reportsQueryHTML   string
	summaryHTML        string
	summaryStatus      int
	orderHistoryHTML   string
	orderHistoryStatus int

	lastReportForm url.Values
}

func newFakePortal(t *testing.T) *fakePortal {
	p := &fakePortal{
		summaryStatus:      http.StatusOK,
		orderHistoryStatus: http.StatusOK,
	}

	tokenPage := func(token string, extra string) string {
		return fmt.Sprintf(
			`<html><body><form><input name="__RequestVerificationToken" type="hidden" value="%s"></form>%s</body></html>`,
			token, extra,
		)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /Account/Login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, tokenPage(loginToken, ""))
	})
	mux.HandleFunc("POST /Account/Login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, loginToken, r.PostForm.Get("__RequestVerificationToken"))
		require.Equal(t, "true", r.PostForm.Get("Login.RememberMe"))
		if p.invalidLogin {
			fmt.Fprint(w, `<html><body>Invalid login attempt</body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body>Dashboard</body></html>`)
	})

	mux.HandleFunc("GET /Organization/TeamLeads", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, tokenPage(teamLeadsToken, ""))
	})
	mux.HandleFunc("POST /Organization/TeamLeads", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("handler") != "Query" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("requestverificationtoken") != teamLeadsToken {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		require.NoError(t, r.ParseForm())
		p.lastReportForm = r.PostForm
		fmt.Fprint(w, p.leadsQueryHTML)
	})

	mux.HandleFunc("GET /Reports/CompanyReports", func(w http.ResponseWriter, r *http.Request) {
		extra := `<span>Jane Doe ID# 36255</span>` +
			`<script>var periods = [{"periodId": 205, "periodTypeId": 2}];</script>`
		fmt.Fprint(w, tokenPage(companyReportsToken, extra))
	})
	mux.HandleFunc("POST /Reports/CompanyReports", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("handler") != "Query" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("requestverificationtoken") != companyReportsToken {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		require.NoError(t, r.ParseForm())
		p.lastReportForm = r.PostForm
		fmt.Fprint(w, p.reportsQueryHTML)
	})

	mux.HandleFunc("GET /CustomerOverview/Summary/", func(w http.ResponseWriter, r *http.Request) {
		if p.summaryStatus != http.StatusOK {
			w.WriteHeader(p.summaryStatus)
			return
		}
		fmt.Fprint(w, p.summaryHTML)
	})
	mux.HandleFunc("POST /CustomerOverview/OrderHistoryOrders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("requestverificationtoken") != companyReportsToken {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if p.orderHistoryStatus != http.StatusOK {
			w.WriteHeader(p.orderHistoryStatus)
			return
		}
		fmt.Fprint(w, p.orderHistoryHTML)
	})

	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakePortal) login(t *testing.T) *Client {
	client, err := NewClient(ClientOptions{BaseUrl: p.srv.URL})
	require.NoError(t, err)
	err = client.Login(context.Background(), "jane@example.com", "hunter2")
	require.NoError(t, err)
	return client
}

func leadRow(date, name, email, phone string) string {
	return fmt.Sprintf(`<tr>
		<td data-colname="EntryDate">%s</td>
		<td data-colname="FullName">%s</td>
		<td data-colname="PublicProfile.Email">%s</td>
		<td data-colname="PublicProfile.Phone">%s</td>
	</tr>`, date, name, email, phone)
}

func reportTable(rows ...string) string {
	table := `<table><tbody id="table-body">`
	for _, row := range rows {
		table += row
	}
	return "<html><body>" + table + `</tbody></table></body></html>`
}

func TestLoginInvalidCredentials(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:frequense")
	defer cleanup()

	portal := newFakePortal(t)
	portal.invalidLogin = true

	client, err := NewClient(ClientOptions{BaseUrl: portal.srv.URL})
	require.NoError(t, err)

	err = client.Login(context.Background(), "jane@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, "Invalid credentials", err.Error())
}

func TestLoginMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>no form here</body></html>`)
	}))
	defer srv.Close()

	client, err := NewClient(ClientOptions{BaseUrl: srv.URL})
	require.NoError(t, err)

	err = client.Login(context.Background(), "jane@example.com", "hunter2")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestLoginPortalUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := NewClient(ClientOptions{BaseUrl: srv.URL})
	require.NoError(t, err)

	err = client.Login(context.Background(), "jane@example.com", "hunter2")
	require.ErrorIs(t, err, ErrPortalUnreachable)
}

// 3 rows dated yesterday and 2 dated two days ago with the default
// window keeps exactly the yesterday rows
func TestLeadsDefaultWindow(t *testing.T) {
	portal := newFakePortal(t)

	yesterday := testNow.AddDate(0, 0, -1).Format("2 Jan 2006")
	twoDaysAgo := testNow.AddDate(0, 0, -2).Format("2 Jan 2006")
	portal.leadsQueryHTML = reportTable(
		leadRow(yesterday, "Ada Lovelace", "ada@example.com", "+15551230001"),
		leadRow(yesterday, "Grace Hopper", "grace@example.com", "15551230002"),
		leadRow(yesterday, "Edith Clarke", "", ""),
		leadRow(twoDaysAgo, "Too Old", "old@example.com", "+15551230003"),
		leadRow(twoDaysAgo, "Also Old", "old2@example.com", "+15551230004"),
	)

	client := portal.login(t)
	leads, err := client.Leads(context.Background(), NewWindow(testNow, 1))
	require.NoError(t, err)

	require.Equal(t, []Lead{
		{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "15551230001"},
		{Name: "Grace Hopper", Email: "grace@example.com", Phone: "15551230002"},
		{Name: "Edith Clarke", Email: "", Phone: ""},
	}, leads)

	require.Equal(t, "f80e81bfe56a4c4bb11dfa303c9a76e3", portal.lastReportForm.Get("teqReportId"))
	require.Equal(t, "0", portal.lastReportForm.Get("filter[Offset]"))
	require.Equal(t, "500", portal.lastReportForm.Get("filter[Limit]"))
	require.Equal(t, "NestedLevel", portal.lastReportForm.Get("filter[SearchList][0][SearchFilter]"))
	require.Equal(t, "eq", portal.lastReportForm.Get("filter[SearchList][0][SearchMethod]"))
	require.Equal(t, "1", portal.lastReportForm.Get("filter[SearchList][0][SearchValue]"))
	require.Equal(t, "DESC", portal.lastReportForm.Get("filter[OrderByMethod]"))
}

// widening the window to 3 days keeps all 4 rows
func TestLeadsWiderWindow(t *testing.T) {
	portal := newFakePortal(t)

	yesterday := testNow.AddDate(0, 0, -1).Format("2 Jan 2006")
	twoDaysAgo := testNow.AddDate(0, 0, -2).Format("2 Jan 2006")
	portal.leadsQueryHTML = reportTable(
		leadRow(yesterday, "A", "a@example.com", "1"),
		leadRow(yesterday, "B", "b@example.com", "2"),
		leadRow(twoDaysAgo, "C", "c@example.com", "3"),
		leadRow(twoDaysAgo, "D", "d@example.com", "4"),
	)

	client := portal.login(t)
	leads, err := client.Leads(context.Background(), NewWindow(testNow, 3))
	require.NoError(t, err)
	require.Len(t, leads, 4)
}

// an empty report is a successful harvest of zero records
func TestLeadsEmptyReport(t *testing.T) {
	portal := newFakePortal(t)
	portal.leadsQueryHTML = reportTable()

	client := portal.login(t)
	leads, err := client.Leads(context.Background(), NewWindow(testNow, 1))
	require.NoError(t, err)
	require.NotNil(t, leads)
	require.Len(t, leads, 0)
}

// one malformed entry date skips that row only
func TestLeadsUnparseableDateSkipsRow(t *testing.T) {
	portal := newFakePortal(t)

	yesterday := testNow.AddDate(0, 0, -1).Format("2 Jan 2006")
	portal.leadsQueryHTML = reportTable(
		leadRow(yesterday, "Kept", "kept@example.com", "1"),
		leadRow("not a date", "Broken", "broken@example.com", "2"),
		leadRow(yesterday, "Also Kept", "kept2@example.com", "3"),
	)

	client := portal.login(t)
	leads, err := client.Leads(context.Background(), NewWindow(testNow, 1))
	require.NoError(t, err)
	require.Len(t, leads, 2)
	require.Equal(t, "Kept", leads[0].Name)
	require.Equal(t, "Also Kept", leads[1].Name)
}

func prospectRow(date, first, last, email, cell string) string {
	return fmt.Sprintf(`<tr>
		<td data-colname="EntryDate"><time>%s</time></td>
		<td data-colname="FirstName">%s</td>
		<td data-colname="LastName">%s</td>
		<td data-colname="Email">%s</td>
		<td data-colname="Cell">%s</td>
	</tr>`, date, first, last, email, cell)
}

func TestProspects(t *testing.T) {
	portal := newFakePortal(t)

	yesterdaySlash := testNow.AddDate(0, 0, -1).Format("1/2/2006 3:04:05 PM")
	yesterdayIso := testNow.AddDate(0, 0, -1).Format("2006-01-02T15:04:05Z07:00")
	twoDaysAgo := testNow.AddDate(0, 0, -2).Format("1/2/2006 3:04:05 PM")
	portal.reportsQueryHTML = reportTable(
		prospectRow(yesterdaySlash, "Ada", "Lovelace", "ada@example.com", "+15551230001"),
		prospectRow(yesterdayIso, "Grace", "Hopper", "grace@example.com", "15551230002"),
		prospectRow(twoDaysAgo, "Too", "Old", "old@example.com", "+15551230003"),
	)

	client := portal.login(t)
	prospects, err := client.Prospects(context.Background(), NewWindow(testNow, 1))
	require.NoError(t, err)

	require.Equal(t, []Prospect{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "15551230001"},
		{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Phone: "15551230002"},
	}, prospects)

	require.Equal(t, "5f7ccdfcd58847bc98239bf2833515e2", portal.lastReportForm.Get("teqReportId"))
	require.Equal(t, "EntryDate", portal.lastReportForm.Get("filter[OrderByColumn]"))
	require.Equal(t, "20009", portal.lastReportForm.Get("reportId"))
	// discovered from the landing page, not hardcoded
	require.Equal(t, "36255", portal.lastReportForm.Get("customerId"))
}

func customerRow(date, name, id string) string {
	return fmt.Sprintf(`<tr>
		<td data-colname="OrderDateOrderDate__shortdate"><time>%s</time></td>
		<td data-colname="CustomerName">%s</td>
		<td data-colname="CustomerId">%s</td>
	</tr>`, date, name, id)
}

const orderHistoryFixture = `<html><body>
<span data-bs-content="Email: j@d.com&lt;br&gt;Phone: +19995550101">contact</span>
<div class="accordion-body">
	<div class="d-flex flex-wrap d-lg-none border rounded p-2 mb-3">
		<div><span>Qty:</span> 2</div>
		<div><span>Description:</span> Immunity Drops</div>
		<div><span>Subtotal:</span> $58.00</div>
	</div>
	<div class="d-flex flex-wrap d-lg-none border rounded p-2 mb-3">
		<div><span>Qty:</span> 1</div>
		<div><span>Description:</span> Focus Blend</div>
		<div><span>Subtotal:</span> $32.00</div>
	</div>
</div>
</body></html>`

const summaryFixture = `<html><body>
<a href="mailto:a@b.com"><span> a@b.com </span></a>
<a href="tel:+15551230000"> +1555 123 0000 </a>
</body></html>`

func TestCustomersEnriched(t *testing.T) {
	portal := newFakePortal(t)

	yesterday := testNow.AddDate(0, 0, -1).Format("1/2/2006 3:04:05 PM")
	portal.reportsQueryHTML = reportTable(
		customerRow(yesterday, "Jane Doe", "777"),
	)
	portal.summaryHTML = summaryFixture
	portal.orderHistoryHTML = orderHistoryFixture

	client := portal.login(t)
	customers, err := client.Customers(context.Background(), NewWindow(testNow, 1))
	require.NoError(t, err)

	require.Equal(t, []Customer{
		{
			CustomerName: "Jane Doe",
			Email:        "a@b.com",
			// the order-history tooltip wins over the summary phone
			Phone: "19995550101",
			Orders: []Order{
				{Qty: "2", Description: "Immunity Drops", Subtotal: "$58.00"},
				{Qty: "1", Description: "Focus Blend", Subtotal: "$32.00"},
			},
		},
	}, customers)

	require.Equal(t, "08e60ec5e30449aa84a45ad8f1af75c6", portal.lastReportForm.Get("teqReportId"))
	require.Equal(t, "20007", portal.lastReportForm.Get("reportId"))
	require.Equal(t, "36255", portal.lastReportForm.Get("customerId"))
	require.Equal(t, "205", portal.lastReportForm.Get("periodId"))
	require.Equal(t, "2", portal.lastReportForm.Get("periodType"))
}

// a failed order-history fetch leaves gaps but still emits the record
func TestCustomersOrderHistoryFailure(t *testing.T) {
	portal := newFakePortal(t)

	yesterday := testNow.AddDate(0, 0, -1).Format("1/2/2006 3:04:05 PM")
	portal.reportsQueryHTML = reportTable(
		customerRow(yesterday, "Jane Doe", "777"),
	)
	portal.summaryHTML = summaryFixture
	portal.orderHistoryStatus = http.StatusInternalServerError

	client := portal.login(t)
	customers, err := client.Customers(context.Background(), NewWindow(testNow, 1))
	require.NoError(t, err)

	require.Equal(t, []Customer{
		{
			CustomerName: "Jane Doe",
			Email:        "a@b.com",
			Phone:        "15551230000",
			Orders:       []Order{},
		},
	}, customers)
}

// output order matches the portal's row order even though enrichment
// fans out concurrently
func TestCustomersPreserveRowOrder(t *testing.T) {
	portal := newFakePortal(t)

	yesterday := testNow.AddDate(0, 0, -1).Format("1/2/2006 3:04:05 PM")
	var rows []string
	for i := 0; i < 10; i++ {
		rows = append(rows, customerRow(yesterday, fmt.Sprintf("Customer %02d", i), fmt.Sprintf("%d", 700+i)))
	}
	portal.reportsQueryHTML = reportTable(rows...)
	portal.summaryHTML = summaryFixture
	portal.orderHistoryHTML = orderHistoryFixture

	client := portal.login(t)
	customers, err := client.Customers(context.Background(), NewWindow(testNow, 1))
	require.NoError(t, err)
	require.Len(t, customers, 10)
	for i, customer := range customers {
		require.Equal(t, fmt.Sprintf("Customer %02d", i), customer.CustomerName)
	}
}

func TestQueryReportNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := NewClient(ClientOptions{BaseUrl: srv.URL})
	require.NoError(t, err)

	_, err = client.QueryReport(context.Background(), "/Organization/TeamLeads", "tok", ReportRequest{ReportID: "x"})
	var fetchErr FetchFailedError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
	require.Equal(t, "Fetch failed 403", err.Error())
}
