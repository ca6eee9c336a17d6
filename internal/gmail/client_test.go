package gmail

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := gmail.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return NewClientFromService(svc, "test")
}

func TestGetMessageMetadata(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Contains(t, r.URL.Path, "users/me/messages/msg-1")
		assert.Equal(t, "metadata", r.URL.Query().Get("format"))
		assert.ElementsMatch(t, []string{"Subject", "From"}, r.URL.Query()["metadataHeaders"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg-1",
			"threadId": "thread-1",
			"internalDate": "1893974400000",
			"payload": {"headers": [
				{"name": "subject", "value": "Sync next week?"},
				{"name": "From", "value": "Bob <bob@example.com>"}
			]}
		}`))
	})

	md, err := client.GetMessageMetadata(context.Background(), "msg-1")
	require.NoError(t, err)

	assert.Equal(t, "msg-1", md.ID)
	assert.Equal(t, "thread-1", md.ThreadID)
	assert.Equal(t, "Sync next week?", md.Subject)
	assert.Equal(t, "Bob <bob@example.com>", md.Sender)
	assert.Equal(t, time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC), md.ReceivedAt)
}

func TestGetMessageMetadata_Errors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 404, "message": "Not Found"}}`, http.StatusNotFound)
	})

	_, err := client.GetMessageMetadata(context.Background(), "missing")
	assert.Error(t, err)

	_, err = client.GetMessageMetadata(context.Background(), "")
	assert.Error(t, err)
}

func TestHeaderValue(t *testing.T) {
	assert.Empty(t, HeaderValue(nil, "From"))
	assert.Empty(t, HeaderValue(&gmail.Message{}, "From"))

	m := &gmail.Message{Payload: &gmail.MessagePart{Headers: []*gmail.MessagePartHeader{
		{Name: "FROM", Value: "a@example.com"},
	}}}
	assert.Equal(t, "a@example.com", HeaderValue(m, "From"))
}

func TestNewClientForAccountWithProvider_NilProvider(t *testing.T) {
	_, err := NewClientForAccountWithProvider(context.Background(), "default", nil)
	assert.Error(t, err)
}
