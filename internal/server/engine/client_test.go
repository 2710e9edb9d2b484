package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/tact0/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_Success(t *testing.T) {
	var gotReq Request
	var gotAuth, gotPath, gotCT string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = io.WriteString(w, `{"prompt":"hi there","mode":"coach","state":{"step":2},"warnings":["w1"]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret-key", 5*time.Second)
	reply, err := c.Chat(context.Background(), Request{Message: "hello", SessionID: "u-42"})
	require.NoError(t, err)

	assert.Equal(t, "/api/chat", gotPath)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, Request{Message: "hello", SessionID: "u-42"}, gotReq)

	want := &Reply{
		Prompt:   "hi there",
		Mode:     "coach",
		State:    json.RawMessage(`{"step":2}`),
		Warnings: []string{"w1"},
	}
	if diff := cmp.Diff(want, reply); diff != "" {
		t.Fatalf("reply mismatch (-want +got):\n%s", diff)
	}
}

func TestChat_NoKeyNoAuthorizationHeader(t *testing.T) {
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		_, _ = io.WriteString(w, `{"prompt":""}`)
	}))
	defer srv.Close()

	reply, err := NewClient(srv.URL, "", time.Second).Chat(context.Background(), Request{Message: "x", SessionID: "u-1"})
	require.NoError(t, err)
	assert.False(t, hasAuth)
	assert.Equal(t, "", reply.Prompt, "an empty prompt string is still a prompt")
}

func TestChat_UpstreamStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantBody   string
	}{
		{"body forwarded", http.StatusTooManyRequests, "slow down", http.StatusTooManyRequests, "slow down"},
		{"empty body gets default text", http.StatusServiceUnavailable, "", http.StatusServiceUnavailable, "Engine request failed"},
		{"long body truncated", http.StatusInternalServerError, strings.Repeat("x", 10000), http.StatusInternalServerError, strings.Repeat("x", 4096)},
		{"not modified becomes bad gateway", http.StatusNotModified, "", http.StatusBadGateway, "Engine request failed"},
		{"redirect becomes bad gateway", http.StatusFound, "moved", http.StatusBadGateway, "moved"},
		{"multiple choices becomes bad gateway", http.StatusMultipleChoices, "pick", http.StatusBadGateway, "pick"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "", time.Second).Chat(context.Background(), Request{Message: "x"})
			var ue *UpstreamError
			require.True(t, errors.As(err, &ue), "got %v", err)
			assert.Equal(t, tt.wantStatus, ue.Status)
			assert.Equal(t, tt.wantBody, ue.Body)
		})
	}
}

func TestChat_InvalidReply(t *testing.T) {
	for name, body := range map[string]string{
		"missing prompt":  `{"mode":"x"}`,
		"prompt not text": `{"prompt":42}`,
		"not json":        `<html>`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "", time.Second).Chat(context.Background(), Request{Message: "x"})
			assert.ErrorIs(t, err, common.ErrInvalidResponse)
		})
	}
}

func TestChat_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "", time.Second).Chat(context.Background(), Request{Message: "x"})
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue), "got %v", err)
	assert.Equal(t, http.StatusBadGateway, ue.Status)
	assert.Equal(t, "engine_unreachable", ue.Body)
}

func TestChat_Unconfigured(t *testing.T) {
	c := NewClient("", "k", time.Second)
	assert.False(t, c.Configured())

	_, err := c.Chat(context.Background(), Request{Message: "x"})
	assert.ErrorIs(t, err, common.ErrMisconfigured)

	var nilClient *Client
	_, err = nilClient.Chat(context.Background(), Request{Message: "x"})
	assert.ErrorIs(t, err, common.ErrMisconfigured)
}

func TestChat_HonorsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL, "", 10*time.Second).Chat(ctx, Request{Message: "x"})
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusBadGateway, ue.Status)
}
