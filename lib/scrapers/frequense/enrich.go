package frequense

import (
	"bytes"
	"context"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"frequense-harvester/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const summaryPath = "/CustomerOverview/Summary/"
const orderHistoryPath = "/CustomerOverview/OrderHistoryOrders"

// the order-history tooltip is the more authoritative phone source;
// its content attribute arrives HTML-escaped
var tooltipPhoneRegex = regexp.MustCompile(`Phone:\s*([+\d]+)`)

// the mobile-layout order blocks repeat once per line item
const orderBlockClass = "d-flex flex-wrap d-lg-none border rounded p-2 mb-3"

// enrichCustomer merges both secondary fetches into the record.
// either fetch failing leaves its fields empty rather than aborting
// the customer: a partially filled record beats a dropped one.
func (c *Client) enrichCustomer(ctx context.Context, token, customerID string, out *Customer) {
	ctx, span := tracer.Start(ctx, "client:enrichCustomer")
	defer span.End()
	span.SetAttributes(attribute.String("customer_id", customerID))

	email, summaryPhone, err := c.fetchCustomerSummary(ctx, customerID)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch customer summary", "customer_id", customerID, "err", err)
		span.RecordError(err)
	}

	orderPhone, orders, err := c.fetchOrderDetails(ctx, token, customerID)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch order history", "customer_id", customerID, "err", err)
		span.RecordError(err)
	}

	out.Email = email
	if orderPhone != "" {
		out.Phone = normalizePhone(orderPhone)
	} else {
		out.Phone = normalizePhone(summaryPhone)
	}
	if len(orders) > 0 {
		out.Orders = orders
	}
}

// fetchCustomerSummary pulls the contact fragment and reads the email
// and phone out of the mailto/tel anchors.
func (c *Client) fetchCustomerSummary(ctx context.Context, customerID string) (email, phone string, err error) {
	ctx, span := tracer.Start(ctx, "client:fetchCustomerSummary")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"handler":    "content",
			"customerID": customerID,
		}).
		Get(summaryPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch summary fragment")
		return "", "", err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "summary fragment returned non-200")
		return "", "", FetchFailedError{StatusCode: res.StatusCode()}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse summary fragment")
		return "", "", err
	}

	email = htmlutil.JoinedText(doc.Find("a[href*='mailto']"))
	phone = htmlutil.JoinedText(doc.Find("a[href*='tel:']"))
	return email, phone, nil
}

// fetchOrderDetails queries the order-history endpoint with the same
// page token as the primary report query and extracts the tooltip
// phone plus every order line item.
func (c *Client) fetchOrderDetails(ctx context.Context, token, customerID string) (phone string, orders []Order, err error) {
	ctx, span := tracer.Start(ctx, "client:fetchOrderDetails")
	defer span.End()

	body := url.Values{}
	body.Set("filter", "")
	body.Set("customerId", customerID)

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/x-www-form-urlencoded; charset=UTF-8").
		SetHeader("requestverificationtoken", token).
		SetHeader("x-requested-with", "XMLHttpRequest").
		SetBody(body.Encode()).
		Post(orderHistoryPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch order history")
		return "", nil, err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "order history returned non-200")
		return "", nil, FetchFailedError{StatusCode: res.StatusCode()}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse order history")
		return "", nil, err
	}

	tooltip := html.UnescapeString(doc.Find("[data-bs-content]").First().AttrOr("data-bs-content", ""))
	if groups := tooltipPhoneRegex.FindStringSubmatch(tooltip); len(groups) > 1 {
		phone = groups[1]
	}

	doc.Find(".accordion-body").Find("[class='" + orderBlockClass + "']").Each(func(_ int, block *goquery.Selection) {
		orders = append(orders, Order{
			Qty:         labeledValue(block, "Qty:"),
			Description: labeledValue(block, "Description:"),
			Subtotal:    labeledValue(block, "Subtotal:"),
		})
	})

	span.SetAttributes(attribute.Int("orders", len(orders)))
	return phone, orders, nil
}

// labeledValue finds the element carrying a "Qty:"-style label and
// returns the text its parent holds next to it.
func labeledValue(block *goquery.Selection, label string) string {
	value := ""
	block.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(htmlutil.OwnText(s), label) {
			return true
		}
		value = htmlutil.OwnText(s.Parent())
		return false
	})
	return strings.TrimSpace(value)
}
