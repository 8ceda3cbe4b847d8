package frequense

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// reportConfig is everything that distinguishes one entity kind's
// report pull from another's. The leads/prospects/customers pipelines
// share the same shape: visit landing page, grab the page token,
// query the report, keep rows inside the date window.
type reportConfig struct {
	LandingPath   string
	ReportID      string
	Limit         int
	OrderByColumn string
	Search        []SearchFilter
	ReportNumber  string
	DateColumn    string
	DateInTimeTag bool
	NeedsAccount  bool
	NeedsPeriod   bool
}

// pageContext carries the per-page state follow-up requests need:
// the query token and the discovered account id.
type pageContext struct {
	Token     string
	AccountID string
}

// queryReportRows runs the shared half of every harvest and returns
// the rows whose entry date falls inside the window, in portal order.
// One malformed row is skipped with a warning, it never drops the
// rest of the page.
func (c *Client) queryReportRows(ctx context.Context, cfg reportConfig, window Window) ([]*goquery.Selection, pageContext, error) {
	ctx, span := tracer.Start(ctx, "client:queryReportRows")
	defer span.End()
	span.SetAttributes(attribute.String("report_id", cfg.ReportID))

	page, err := c.visitLanding(ctx, cfg.LandingPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to visit landing page")
		return nil, pageContext{}, err
	}

	req := ReportRequest{
		ReportID:      cfg.ReportID,
		Limit:         cfg.Limit,
		OrderByColumn: cfg.OrderByColumn,
		Search:        cfg.Search,
		ReportNumber:  cfg.ReportNumber,
	}
	pctx := pageContext{Token: page.Token}
	if cfg.NeedsAccount {
		pctx.AccountID = accountIDFromDoc(page.Doc)
		req.CustomerID = pctx.AccountID
	}
	if cfg.NeedsPeriod {
		req.PeriodID, req.PeriodType = reportingPeriodFromDoc(page.Doc)
	}

	markup, err := c.QueryReport(ctx, cfg.LandingPath, page.Token, req)
	if err != nil {
		span.SetStatus(codes.Error, "report query failed")
		return nil, pctx, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(markup))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse report markup")
		return nil, pctx, err
	}

	var kept []*goquery.Selection
	Rows(doc).Each(func(_ int, row *goquery.Selection) {
		var raw string
		if cfg.DateInTimeTag {
			raw = TimeField(row, cfg.DateColumn)
		} else {
			raw = Field(row, cfg.DateColumn)
		}

		entryDate, err := ParseEntryDate(raw)
		if err != nil {
			slog.WarnContext(ctx, "skipping report row", "err", err, "report_id", cfg.ReportID)
			span.AddEvent("skipped row")
			return
		}
		if !window.Contains(entryDate) {
			return
		}
		kept = append(kept, row)
	})

	span.SetAttributes(attribute.Int("rows_kept", len(kept)))
	return kept, pctx, nil
}
