package frequense

import (
	"context"

	"go.opentelemetry.io/otel/codes"
)

type Prospect struct {
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Email     string `json:"Email"`
	Phone     string `json:"Phone"`
}

var prospectsReport = reportConfig{
	LandingPath:   "/Reports/CompanyReports",
	ReportID:      "5f7ccdfcd58847bc98239bf2833515e2",
	Limit:         500,
	OrderByColumn: "EntryDate",
	ReportNumber:  "20009",
	DateColumn:    "EntryDate",
	DateInTimeTag: true,
	NeedsAccount:  true,
}

func (c *Client) Prospects(ctx context.Context, window Window) ([]Prospect, error) {
	ctx, span := tracer.Start(ctx, "client:Prospects")
	defer span.End()

	rows, _, err := c.queryReportRows(ctx, prospectsReport, window)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	prospects := make([]Prospect, 0, len(rows))
	for _, row := range rows {
		prospects = append(prospects, Prospect{
			FirstName: Field(row, "FirstName"),
			LastName:  Field(row, "LastName"),
			Email:     Field(row, "Email"),
			Phone:     normalizePhone(Field(row, "Cell")),
		})
	}
	return prospects, nil
}
