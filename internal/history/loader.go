package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/PrincexMacbay/saas-platform-sub000/internal/config"
	"github.com/PrincexMacbay/saas-platform-sub000/internal/entity"
	"github.com/PrincexMacbay/saas-platform-sub000/pkg/errcode"
)

// envelope is the platform's standard API response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Pagination is the page metadata returned with message history
type Pagination struct {
	Page       int  `json:"page"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// MessagePage is one page of message history, ascending by time as
// returned by the server
type MessagePage struct {
	Messages   []*entity.Message `json:"messages"`
	Pagination Pagination        `json:"pagination"`
}

// Loader fetches paginated history and unread counts over the
// platform's HTTP API. It is stateless: a pure function of
// (scope, id, page), no caching.
type Loader struct {
	baseURL    string
	token      string
	pageSize   int
	httpClient *client.Client
}

// NewLoader creates a history loader against the configured base URL
func NewLoader(cfg *config.Config, token string) (*Loader, error) {
	httpClient, err := client.NewClient(
		client.WithDialTimeout(cfg.History.FetchTimeout),
		client.WithClientReadTimeout(cfg.History.FetchTimeout),
		client.WithWriteTimeout(cfg.History.FetchTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	return &Loader{
		baseURL:    cfg.Server.BaseURL,
		token:      token,
		pageSize:   cfg.History.PageSize,
		httpClient: httpClient,
	}, nil
}

// FetchMessagesPage fetches one page of a conversation's history
func (l *Loader) FetchMessagesPage(ctx context.Context, scope entity.Scope, id int64, page int) (*MessagePage, error) {
	if !scope.Valid() {
		return nil, errcode.ErrInvalidParam
	}
	if page <= 0 {
		page = 1
	}

	path := fmt.Sprintf("/api/chat/conversations/%d/messages", id)
	if scope == entity.ScopeGroup {
		path = fmt.Sprintf("/api/chat/group-conversations/%d/messages", id)
	}
	params := map[string]string{
		"page":  fmt.Sprintf("%d", page),
		"limit": fmt.Sprintf("%d", l.pageSize),
	}

	var result MessagePage
	if err := l.get(ctx, path, params, &result); err != nil {
		return nil, errcode.ErrHistoryFetchFailed.Wrap(err)
	}
	return &result, nil
}

// FetchConversations fetches the direct conversation list used to seed
// the sidebar
func (l *Loader) FetchConversations(ctx context.Context) ([]*entity.Conversation, error) {
	var result struct {
		Conversations []*entity.Conversation `json:"conversations"`
	}
	if err := l.get(ctx, "/api/chat/conversations", nil, &result); err != nil {
		return nil, errcode.ErrHistoryFetchFailed.Wrap(err)
	}
	return result.Conversations, nil
}

// FetchGroupConversations fetches the group conversation list
func (l *Loader) FetchGroupConversations(ctx context.Context) ([]*entity.GroupConversation, error) {
	var result struct {
		GroupConversations []*entity.GroupConversation `json:"groupConversations"`
	}
	if err := l.get(ctx, "/api/chat/group-conversations", nil, &result); err != nil {
		return nil, errcode.ErrHistoryFetchFailed.Wrap(err)
	}
	return result.GroupConversations, nil
}

// FetchUnreadCounts fetches the server's aggregate unread view
func (l *Loader) FetchUnreadCounts(ctx context.Context) (*entity.UnreadCounts, error) {
	var result entity.UnreadCounts
	if err := l.get(ctx, "/api/chat/unread-count", nil, &result); err != nil {
		return nil, errcode.ErrHistoryFetchFailed.Wrap(err)
	}
	return &result, nil
}

// get makes a GET request and decodes the enveloped response
func (l *Loader) get(ctx context.Context, path string, params map[string]string, result any) error {
	reqURL := l.baseURL + path
	if len(params) > 0 {
		query := url.Values{}
		for k, v := range params {
			query.Set(k, v)
		}
		reqURL += "?" + query.Encode()
	}

	req := &protocol.Request{}
	resp := &protocol.Response{}

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(reqURL)

	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	if err := l.httpClient.Do(ctx, req, resp); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	var apiResp envelope
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !apiResp.Success {
		return fmt.Errorf("server error: %s", apiResp.Message)
	}

	if result != nil && apiResp.Data != nil {
		if err := json.Unmarshal(apiResp.Data, result); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}

	return nil
}
