package frequense

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"frequense-harvester/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/frequense")

const DefaultBaseUrl = "https://my.frequense.com"

// the portal bounds each harvest end to end, there is no
// per-customer cancellation below this
const DefaultTimeout = time.Second * 200

const loginPath = "/Account/Login?ReturnUrl=%2F"
const verificationTokenSelector = "input[name=__RequestVerificationToken]"
const invalidLoginMarker = "Invalid login"

var (
	ErrPortalUnreachable  = errors.New("Failed to load login page")
	ErrMissingToken       = errors.New("Missing verification token")
	ErrInvalidCredentials = errors.New("Invalid credentials")
)

type FetchFailedError struct {
	StatusCode int
}

func (e FetchFailedError) Error() string {
	return fmt.Sprintf("Fetch failed %d", e.StatusCode)
}

// Client holds one authenticated portal session. A client is created
// per harvest and thrown away afterwards, sessions are never pooled
// or shared between harvests.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
}

type ClientOptions struct {
	BaseUrl string
	// zero means DefaultTimeout
	Timeout time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "scrapers/frequense/http")

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}
	return c, nil
}

// Login performs the anti-forgery handshake: fetch the login page,
// scrape the hidden verification token, echo it back with the
// credentials. A failure is terminal for the calling harvest, it is
// never retried (credential lockout risk).
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(loginPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, ErrPortalUnreachable.Error())
		return ErrPortalUnreachable
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse login page html")
		return err
	}

	token := doc.Find(verificationTokenSelector).AttrOr("value", "")
	if token == "" {
		span.SetStatus(codes.Error, ErrMissingToken.Error())
		return ErrMissingToken
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"Login.Username":             username,
			"Login.Password":             password,
			"Login.RememberMe":           "true",
			"__RequestVerificationToken": token,
		}).
		Post(loginPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return err
	}

	if strings.Contains(res.String(), invalidLoginMarker) {
		span.SetStatus(codes.Error, ErrInvalidCredentials.Error())
		return ErrInvalidCredentials
	}

	return nil
}
