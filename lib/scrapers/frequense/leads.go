package frequense

import (
	"context"

	"go.opentelemetry.io/otel/codes"
)

type Lead struct {
	Name  string `json:"Name"`
	Email string `json:"Email"`
	Phone string `json:"Phone"`
}

var leadsReport = reportConfig{
	LandingPath: "/Organization/TeamLeads",
	ReportID:    "f80e81bfe56a4c4bb11dfa303c9a76e3",
	Limit:       500,
	Search: []SearchFilter{
		{Filter: "NestedLevel", Method: "eq", Value: "1"},
	},
	DateColumn: "EntryDate",
}

func (c *Client) Leads(ctx context.Context, window Window) ([]Lead, error) {
	ctx, span := tracer.Start(ctx, "client:Leads")
	defer span.End()

	rows, _, err := c.queryReportRows(ctx, leadsReport, window)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	leads := make([]Lead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, Lead{
			Name:  Field(row, "FullName"),
			Email: Field(row, "PublicProfile.Email"),
			Phone: normalizePhone(Field(row, "PublicProfile.Phone")),
		})
	}
	return leads, nil
}
