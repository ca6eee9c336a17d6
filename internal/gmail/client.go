package gmail

import (
	"context"
	"fmt"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxcal/internal/google"
	"github.com/teemow/inboxcal/internal/instrumentation"
)

// Client wraps the Gmail Users service
type Client struct {
	svc     *gmail.UsersService
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

// NewClientForAccountWithProvider creates a new Gmail client with OAuth2 authentication for a specific account
func NewClientForAccountWithProvider(ctx context.Context, account string, tokenProvider google.TokenProvider) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := tokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	httpClient := google.NewHTTPClient(ctx, google.GetOAuthConfig().TokenSource(ctx, token))

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return NewClientFromService(svc, account), nil
}

// NewClientFromService wraps an existing Gmail service.
func NewClientFromService(svc *gmail.Service, account string) *Client {
	return &Client{svc: svc.Users, account: account}
}

// GetMessageMetadata fetches the subject, sender, thread and receive time of
// a message in the account's mailbox.
func (c *Client) GetMessageMetadata(ctx context.Context, messageID string) (*MessageMetadata, error) {
	if messageID == "" {
		return nil, fmt.Errorf("message ID cannot be empty")
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, "messages.get",
		instrumentation.NewSpanAttributeBuilder().WithAccount(c.account).Build()...)
	defer span.End()

	start := time.Now()
	msg, err := c.svc.Messages.Get("me", messageID).
		Format("metadata").
		MetadataHeaders(metadataHeaders...).
		Context(ctx).
		Do()
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, "messages.get", status, time.Since(start))

	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}

	instrumentation.SetSpanSuccess(span)
	return toMessageMetadata(msg), nil
}
