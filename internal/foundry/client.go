// Package foundry reads agent conversation threads from an Azure AI Foundry
// project endpoint.
package foundry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/MikeSquared-Agency/triage/internal/thread"
)

const (
	// Scope is the token audience for Foundry project endpoints.
	Scope = "https://ai.azure.com/.default"

	pageSize = 100
)

type Client struct {
	endpoint   string
	apiVersion string
	cred       azcore.TokenCredential
	client     *http.Client
}

// NewClient builds a client for the project endpoint, e.g.
// https://<resource>.services.ai.azure.com/api/projects/<project>.
func NewClient(endpoint, apiVersion string, cred azcore.TokenCredential) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiVersion: apiVersion,
		cred:       cred,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

// NewDefaultClient authenticates with the ambient Azure identity
// (environment, managed identity or az CLI login).
func NewDefaultClient(endpoint, apiVersion string) (*Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	return NewClient(endpoint, apiVersion, cred), nil
}

type messageList struct {
	Data    []message `json:"data"`
	LastID  string    `json:"last_id"`
	HasMore bool      `json:"has_more"`
}

type message struct {
	ID      string        `json:"id"`
	Role    string        `json:"role"`
	Content []contentItem `json:"content"`
}

type contentItem struct {
	Type string `json:"type"`
	Text *struct {
		Value string `json:"value"`
	} `json:"text,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ListMessages returns every message of the thread, newest first, following
// the cursor until the service reports no more pages.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]thread.RawMessage, error) {
	token, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{Scope}})
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	var out []thread.RawMessage
	after := ""
	for {
		page, err := c.listPage(ctx, token.Token, threadID, after)
		if err != nil {
			return nil, err
		}
		for _, m := range page.Data {
			out = append(out, toRaw(m))
		}
		if !page.HasMore || page.LastID == "" || page.LastID == after {
			return out, nil
		}
		after = page.LastID
	}
}

func (c *Client) listPage(ctx context.Context, token, threadID, after string) (*messageList, error) {
	q := url.Values{}
	q.Set("api-version", c.apiVersion)
	q.Set("order", "desc")
	q.Set("limit", fmt.Sprint(pageSize))
	if after != "" {
		q.Set("after", after)
	}
	u := fmt.Sprintf("%s/threads/%s/messages?%s", c.endpoint, url.PathEscape(threadID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("api error %d: %s: %s", resp.StatusCode, errResp.Error.Code, errResp.Error.Message)
		}
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(body))
	}

	var page messageList
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &page, nil
}

func toRaw(m message) thread.RawMessage {
	rm := thread.RawMessage{ID: m.ID, Role: thread.Role(m.Role)}
	for _, c := range m.Content {
		switch c.Type {
		case "text":
			part := thread.ContentPart{Kind: thread.ContentText}
			if c.Text != nil {
				part.Text = c.Text.Value
			}
			rm.Content = append(rm.Content, part)
		case "image_file":
			rm.Content = append(rm.Content, thread.ContentPart{Kind: thread.ContentImageFile})
		default:
			rm.Content = append(rm.Content, thread.ContentPart{Kind: thread.ContentOther})
		}
	}
	return rm
}
