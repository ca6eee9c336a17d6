package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxcal/internal/preferences"
	"github.com/teemow/inboxcal/internal/server"
)

// URI templates of the registered resources.
const (
	PreferencesURITemplate = "inboxcal://users/{userId}/preferences"
	CandidateURITemplate   = "inboxcal://users/{userId}/candidates/{candidateId}"
)

var (
	preferencesURI = regexp.MustCompile(`^inboxcal://users/(\d+)/preferences$`)
	candidateURI   = regexp.MustCompile(`^inboxcal://users/(\d+)/candidates/(\d+)$`)
)

// RegisterUserResources registers the per-user resource templates.
func RegisterUserResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	preferencesTemplate := mcp.NewResourceTemplate(
		PreferencesURITemplate,
		"User Scheduling Preferences",
		mcp.WithTemplateDescription("Effective working hours and default meeting length of a user, with unset keys filled from the configured defaults"),
		mcp.WithTemplateMIMEType("application/json"),
	)

	s.AddResourceTemplate(preferencesTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleUserPreferences(ctx, request, sc)
	})

	candidateTemplate := mcp.NewResourceTemplate(
		CandidateURITemplate,
		"Calendar Candidate",
		mcp.WithTemplateDescription("A stored calendar candidate and its last suggested meeting times"),
		mcp.WithTemplateMIMEType("application/json"),
	)

	s.AddResourceTemplate(candidateTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCandidate(ctx, request, sc)
	})

	return nil
}

// handleUserPreferences returns the preferences used when scheduling for the user
func handleUserPreferences(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	m := preferencesURI.FindStringSubmatch(uri)
	if m == nil {
		return nil, fmt.Errorf("invalid preferences URI: %s", uri)
	}
	userID, _ := strconv.ParseInt(m[1], 10, 64)

	if _, err := sc.Store().GetUser(ctx, userID); err != nil {
		return nil, err
	}

	prefs, err := preferences.NewResolver(sc.Store(), sc.Settings().Defaults).ForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	return jsonContents(uri, prefs)
}

// handleCandidate returns a stored candidate of the user
func handleCandidate(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	m := candidateURI.FindStringSubmatch(uri)
	if m == nil {
		return nil, fmt.Errorf("invalid candidate URI: %s", uri)
	}
	userID, _ := strconv.ParseInt(m[1], 10, 64)
	candidateID, _ := strconv.ParseInt(m[2], 10, 64)

	c, err := sc.Store().GetCandidate(ctx, userID, candidateID)
	if err != nil {
		return nil, err
	}

	return jsonContents(uri, c)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode resource: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
