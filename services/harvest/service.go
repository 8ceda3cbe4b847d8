package harvest

import (
	"context"
	"log/slog"
	"time"

	"frequense-harvester/lib/scrapers/frequense"
	"frequense-harvester/lib/timezone"
	"frequense-harvester/services/harvest/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/harvest")

type Config struct {
	BaseUrl string `json:"base_url"`
	// end-to-end bound for one harvest, in seconds. zero means the
	// scraper default (200s).
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Service runs one harvest per request: it builds a fresh
// authenticated session, pulls the requested entity kind, and records
// the outcome in the run log. Sessions are never reused across
// requests.
type Service struct {
	config Config
	store  db.Store
}

func NewService(config Config, store db.Store) Service {
	return Service{
		config: config,
		store:  store,
	}
}

type HarvestRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// look back this many days ending at yesterday; absent or <= 1
	// means yesterday only
	Days int `json:"days"`
}

func (s Service) login(ctx context.Context, req HarvestRequest) (*frequense.Client, error) {
	client, err := frequense.NewClient(frequense.ClientOptions{
		BaseUrl: s.config.BaseUrl,
		Timeout: time.Duration(s.config.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	err = client.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s Service) Leads(ctx context.Context, req HarvestRequest) ([]frequense.Lead, error) {
	ctx, span := tracer.Start(ctx, "service:Leads")
	defer span.End()

	started := timezone.Now()
	client, err := s.login(ctx, req)
	if err != nil {
		s.record(ctx, "leads", 0, started, err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	leads, err := client.Leads(ctx, frequense.NewWindow(timezone.Now(), req.Days))
	s.record(ctx, "leads", len(leads), started, err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("total", len(leads)))
	return leads, nil
}

func (s Service) Prospects(ctx context.Context, req HarvestRequest) ([]frequense.Prospect, error) {
	ctx, span := tracer.Start(ctx, "service:Prospects")
	defer span.End()

	started := timezone.Now()
	client, err := s.login(ctx, req)
	if err != nil {
		s.record(ctx, "prospects", 0, started, err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	prospects, err := client.Prospects(ctx, frequense.NewWindow(timezone.Now(), req.Days))
	s.record(ctx, "prospects", len(prospects), started, err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("total", len(prospects)))
	return prospects, nil
}

func (s Service) Customers(ctx context.Context, req HarvestRequest) ([]frequense.Customer, error) {
	ctx, span := tracer.Start(ctx, "service:Customers")
	defer span.End()

	started := timezone.Now()
	client, err := s.login(ctx, req)
	if err != nil {
		s.record(ctx, "customers", 0, started, err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	customers, err := client.Customers(ctx, frequense.NewWindow(timezone.Now(), req.Days))
	s.record(ctx, "customers", len(customers), started, err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("total", len(customers)))
	return customers, nil
}

func (s Service) record(ctx context.Context, kind string, total int, started time.Time, harvestErr error) {
	errMsg := ""
	if harvestErr != nil {
		errMsg = harvestErr.Error()
	}
	err := s.store.RecordRun(ctx, db.Run{
		Kind:     kind,
		Total:    total,
		Duration: timezone.Now().Sub(started),
		Error:    errMsg,
		Time:     started,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to record harvest run", "kind", kind, "err", err)
	}
}
