package frequense

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

type Order struct {
	Qty         string `json:"qty"`
	Description string `json:"description"`
	Subtotal    string `json:"subtotal"`
}

type Customer struct {
	CustomerName string  `json:"CustomerName"`
	Email        string  `json:"Email"`
	Phone        string  `json:"Phone"`
	Orders       []Order `json:"Orders"`
}

var customersReport = reportConfig{
	LandingPath:   "/Reports/CompanyReports",
	ReportID:      "08e60ec5e30449aa84a45ad8f1af75c6",
	Limit:         50,
	OrderByColumn: "OrderDateOrderDate__shortdate",
	Search: []SearchFilter{
		{Filter: "Level", Method: "eq", Value: "1"},
	},
	ReportNumber:  "20007",
	DateColumn:    "OrderDateOrderDate__shortdate",
	DateInTimeTag: true,
	NeedsAccount:  true,
	NeedsPeriod:   true,
}

// enrichment calls for distinct customers are independent, so they
// fan out over a small worker pool. results land in an indexed slice
// so output order always matches the portal's row order.
const enrichmentWorkers = 4

// Customers is the two-stage pipeline: after date filtering, every
// surviving row gets two secondary fetches (contact summary + order
// history) merged into the final record. A failed secondary fetch
// leaves gaps in that record, it never drops the customer.
func (c *Client) Customers(ctx context.Context, window Window) ([]Customer, error) {
	ctx, span := tracer.Start(ctx, "client:Customers")
	defer span.End()

	rows, page, err := c.queryReportRows(ctx, customersReport, window)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	customers := make([]Customer, len(rows))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(enrichmentWorkers)
	for i, row := range rows {
		customers[i] = Customer{
			CustomerName: Field(row, "CustomerName"),
			Orders:       []Order{},
		}
		customerID := Field(row, "CustomerId")

		i := i
		group.Go(func() error {
			c.enrichCustomer(gctx, page.Token, customerID, &customers[i])
			return nil
		})
	}
	// workers degrade gracefully instead of returning errors
	_ = group.Wait()

	span.SetAttributes(attribute.Int("customers", len(customers)))
	return customers, nil
}
