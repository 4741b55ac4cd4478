package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrincexMacbay/saas-platform-sub000/internal/config"
	"github.com/PrincexMacbay/saas-platform-sub000/internal/entity"
	"github.com/PrincexMacbay/saas-platform-sub000/pkg/errcode"
)

func newTestLoader(t *testing.T, handler http.Handler) (*Loader, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Server.BaseURL = srv.URL

	loader, err := NewLoader(cfg, "test-token")
	require.NoError(t, err)
	return loader, srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestFetchMessagesPage(t *testing.T) {
	loader, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/conversations/42/messages", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		writeJSON(w, map[string]any{
			"success": true,
			"data": map[string]any{
				"messages": []map[string]any{
					{"id": "m1", "conversationId": 42, "senderId": 2, "content": "hi"},
					{"id": "m2", "conversationId": 42, "senderId": 1, "content": "hello"},
				},
				"pagination": map[string]any{"page": 2, "totalPages": 5, "hasMore": true},
			},
		})
	}))

	page, err := loader.FetchMessagesPage(context.Background(), entity.ScopeDirect, 42, 2)
	require.NoError(t, err)

	require.Len(t, page.Messages, 2)
	assert.Equal(t, "m1", page.Messages[0].Id)
	assert.EqualValues(t, 42, page.Messages[0].ConversationId)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.True(t, page.Pagination.HasMore)
}

func TestFetchMessagesPage_GroupPath(t *testing.T) {
	loader, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/group-conversations/9/messages", r.URL.Path)
		writeJSON(w, map[string]any{
			"success": true,
			"data":    map[string]any{"messages": []any{}, "pagination": map[string]any{"page": 1}},
		})
	}))

	page, err := loader.FetchMessagesPage(context.Background(), entity.ScopeGroup, 9, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
	assert.False(t, page.Pagination.HasMore)
}

func TestFetchMessagesPage_ServerFailure(t *testing.T) {
	loader, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": false, "message": "conversation not found"})
	}))

	_, err := loader.FetchMessagesPage(context.Background(), entity.ScopeDirect, 42, 1)
	require.ErrorIs(t, err, errcode.ErrHistoryFetchFailed)
}

func TestFetchMessagesPage_HTTPError(t *testing.T) {
	loader, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := loader.FetchMessagesPage(context.Background(), entity.ScopeDirect, 42, 1)
	require.ErrorIs(t, err, errcode.ErrHistoryFetchFailed)
}

func TestFetchConversations(t *testing.T) {
	loader, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/conversations", r.URL.Path)
		writeJSON(w, map[string]any{
			"success": true,
			"data": map[string]any{
				"conversations": []map[string]any{
					{"id": 5, "peerUserId": 2, "unreadCount": 3, "lastMessageAt": 1700000000000},
				},
			},
		})
	}))

	convs, err := loader.FetchConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.EqualValues(t, 5, convs[0].Id)
	assert.EqualValues(t, 3, convs[0].UnreadCount)
}

func TestFetchUnreadCounts(t *testing.T) {
	loader, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/unread-count", r.URL.Path)
		writeJSON(w, map[string]any{
			"success": true,
			"data":    map[string]any{"conversations": 2, "groups": 1, "total": 3},
		})
	}))

	counts, err := loader.FetchUnreadCounts(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts.Conversations)
	assert.EqualValues(t, 1, counts.Groups)
	assert.EqualValues(t, 3, counts.Total)
}
