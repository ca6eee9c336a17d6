package calendar

import (
	"context"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/inboxcal/internal/google"
	"github.com/teemow/inboxcal/internal/instrumentation"
)

// PrimaryCalendarID is the alias Google uses for the account's main calendar.
const PrimaryCalendarID = "primary"

// Client wraps the Google Calendar service
type Client struct {
	svc     *calendar.Service
	account string // The account this client is associated with
	metrics *instrumentation.Metrics
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// SetMetrics attaches a metrics recorder for Google API calls.
func (c *Client) SetMetrics(m *instrumentation.Metrics) {
	c.metrics = m
}

// HasTokenForAccountWithProvider checks if a valid OAuth token exists for the specified account
func HasTokenForAccountWithProvider(account string, provider google.TokenProvider) bool {
	if provider == nil {
		return false
	}
	return provider.HasTokenForAccount(account)
}

// NewClientForAccountWithProvider creates a new Calendar client with OAuth2 authentication for a specific account
// The OAuth token is retrieved from the provided token provider
func NewClientForAccountWithProvider(ctx context.Context, account string, tokenProvider google.TokenProvider) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := tokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	tokenSource := google.GetOAuthConfig().TokenSource(ctx, token)
	httpClient := google.NewHTTPClient(ctx, tokenSource)

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return NewClientFromService(svc, account), nil
}

// NewClientForAccount creates a new Calendar client using the file-based token provider
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	return NewClientForAccountWithProvider(ctx, account, google.NewFileTokenProvider())
}

// NewClientFromService wraps an existing Calendar service.
func NewClientFromService(svc *calendar.Service, account string) *Client {
	return &Client{svc: svc, account: account}
}

// QueryFreeBusyRaw queries busy ranges for the calendars between timeMin and
// timeMax (RFC3339). The response is returned without parsing the busy bounds.
func (c *Client) QueryFreeBusyRaw(ctx context.Context, timeMin, timeMax string, calendarIDs []string) (*FreeBusyResult, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "freebusy",
		instrumentation.NewSpanAttributeBuilder().WithAccount(c.account).Build()...)
	defer span.End()

	items := make([]*calendar.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	query := &calendar.FreeBusyRequest{
		TimeMin: timeMin,
		TimeMax: timeMax,
		Items:   items,
	}

	start := time.Now()
	resp, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, "freebusy", status, time.Since(start))

	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	instrumentation.SetSpanSuccess(span)
	return toFreeBusyResult(resp), nil
}

// GetPrimaryTimeZone returns the time zone configured on the primary calendar.
func (c *Client) GetPrimaryTimeZone(ctx context.Context) (string, error) {
	entry, err := c.svc.CalendarList.Get(PrimaryCalendarID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get primary calendar: %w", err)
	}
	return entry.TimeZone, nil
}
