package frequense

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// the portal caps report pages at 500 rows
const MaxLimit = 500

type SearchFilter struct {
	Filter string
	Method string
	Value  string
}

// ReportRequest describes one page of a portal report. The encoded
// field names use the bracketed list-index scheme the portal parses
// positionally (`filter[SearchList][0][SearchFilter]`), so they must
// be reproduced exactly.
type ReportRequest struct {
	ReportID      string
	Offset        int
	Limit         int
	OrderByColumn string
	OrderByMethod string
	Search        []SearchFilter

	// entity-specific extras, omitted when empty
	ReportNumber string
	CustomerID   string
	PeriodType   string
	PeriodID     string
}

func (r ReportRequest) Values() url.Values {
	v := url.Values{}
	v.Set("teqReportId", r.ReportID)
	v.Set("filter[Offset]", strconv.Itoa(r.Offset))

	limit := r.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	v.Set("filter[Limit]", strconv.Itoa(limit))

	if r.OrderByColumn != "" {
		v.Set("filter[OrderByColumn]", r.OrderByColumn)
	}
	method := r.OrderByMethod
	if method == "" {
		method = "DESC"
	}
	v.Set("filter[OrderByMethod]", method)

	for i, f := range r.Search {
		v.Set(fmt.Sprintf("filter[SearchList][%d][SearchFilter]", i), f.Filter)
		v.Set(fmt.Sprintf("filter[SearchList][%d][SearchMethod]", i), f.Method)
		v.Set(fmt.Sprintf("filter[SearchList][%d][SearchValue]", i), f.Value)
	}

	if r.ReportNumber != "" {
		v.Set("reportId", r.ReportNumber)
	}
	if r.CustomerID != "" {
		v.Set("customerId", r.CustomerID)
	}
	if r.PeriodType != "" {
		v.Set("periodType", r.PeriodType)
	}
	if r.PeriodID != "" {
		v.Set("periodId", r.PeriodID)
	}

	return v
}

type landingPage struct {
	Token string
	Doc   *goquery.Document
}

// visits an entity's landing page to pick up the per-page query token.
// the token is scoped to this page only and must not be reused against
// a different report endpoint.
func (c *Client) visitLanding(ctx context.Context, path string) (landingPage, error) {
	ctx, span := tracer.Start(ctx, "client:visitLanding")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	res, err := c.Http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch landing page")
		return landingPage{}, err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "landing page returned non-200")
		return landingPage{}, FetchFailedError{StatusCode: res.StatusCode()}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse landing page html")
		return landingPage{}, err
	}

	token := doc.Find(verificationTokenSelector).AttrOr("value", "")
	if token == "" {
		// the query will be rejected by the portal, surfaced there
		slog.WarnContext(ctx, "landing page carried no verification token", "path", path)
	}
	return landingPage{Token: token, Doc: doc}, nil
}

// QueryReport posts one page of a filtered, sorted report query and
// returns the raw markup. No retries: blind retries risk tripping the
// portal's rate limiting, the caller decides what a failure means.
func (c *Client) QueryReport(ctx context.Context, path, token string, req ReportRequest) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:QueryReport")
	defer span.End()
	span.SetAttributes(
		attribute.String("path", path),
		attribute.String("report_id", req.ReportID),
	)

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/x-www-form-urlencoded; charset=UTF-8").
		SetHeader("requestverificationtoken", token).
		SetHeader("x-requested-with", "XMLHttpRequest").
		SetQueryParam("handler", "Query").
		SetBody(req.Values().Encode()).
		Post(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make report query")
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "report query returned non-200")
		return nil, FetchFailedError{StatusCode: res.StatusCode()}
	}

	return res.Body(), nil
}
