package transport

import (
	"appero/internal/models"
	"appero/internal/structures"
	"appero/internal/testutil"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, timeout time.Duration) *Client {
	conf := &structures.Config{Api: structures.ApiConfig{BaseURL: url + "/", Timeout: timeout, BuildVersion: "1.2.3"}}
	return NewClient(conf, &testutil.MockLogger{}, &testutil.MockMetrics{})
}

func TestClient_SendSuccess(t *testing.T) {
	var gotReq *http.Request
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"should_show_feedback":true,"flow_type":"frustration"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	sentAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := c.Send(context.Background(), EndpointExperiences, models.ExperienceRequest{
		UserID: "u1", Value: 5, Context: "checkout", SentAt: sentAt,
	}, "post", "secret")
	require.NoError(t, err)

	var resp models.ExperienceResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.True(t, resp.ShouldShowFeedback)

	assert.Equal(t, http.MethodPost, gotReq.Method)
	assert.Equal(t, "/experiences", gotReq.URL.Path)
	assert.Equal(t, "Bearer secret", gotReq.Header.Get("Authorization"))
	assert.Equal(t, "application/json; charset=utf-8", gotReq.Header.Get("Content-Type"))
	assert.Equal(t, "appero-go/1.2.3", gotReq.Header.Get("User-Agent"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &body))
	assert.Equal(t, "u1", body["user_id"])
	assert.Equal(t, float64(5), body["value"])
	assert.Equal(t, "checkout", body["context"])
	assert.Equal(t, "2025-01-02T03:04:05Z", body["sent_at"])
}

func TestClient_SendNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second).Send(context.Background(), EndpointFeedback, map[string]any{}, "post", "k")
	assert.ErrorIs(t, err, ErrNoData)
	assert.True(t, Delivered(err))
}

func TestClient_SendStatusErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantServer bool
	}{
		{"server error", http.StatusInternalServerError, "oops", false},
		{"unauthorized with body", http.StatusUnauthorized, `{"error":"unauthorized","message":"bad key"}`, true},
		{"unprocessable with body", http.StatusUnprocessableEntity, `{"error":"invalid","message":"value","details":{"value":["out of range"]}}`, true},
		{"unprocessable without body", http.StatusUnprocessableEntity, ``, false},
		{"not found", http.StatusNotFound, `{"error":"nope"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, time.Second).Send(context.Background(), EndpointExperiences, struct{}{}, "post", "k")
			require.Error(t, err)
			assert.False(t, Delivered(err))
			assert.Equal(t, tt.status, StatusCode(err))

			var srvErr *ServerMessageError
			assert.Equal(t, tt.wantServer, errors.As(err, &srvErr))
		})
	}
}

func TestClient_ServerMessageDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"invalid","message":"bad","details":{"user_id":["missing"]}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second).Send(context.Background(), EndpointExperiences, struct{}{}, "post", "k")
	var srvErr *ServerMessageError
	require.True(t, errors.As(err, &srvErr))
	assert.Equal(t, []string{"missing"}, srvErr.Body.Details.UserID)
	assert.Contains(t, srvErr.Error(), "bad")
}

func TestClient_SendTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestClient(srv.URL, 50*time.Millisecond).Send(context.Background(), EndpointExperiences, struct{}{}, "post", "k")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_SendNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, time.Second).Send(context.Background(), EndpointExperiences, struct{}{}, "post", "k")
	assert.ErrorIs(t, err, ErrNoResponse)
	assert.Equal(t, 0, StatusCode(err))
}

func TestClient_SendEncodeError(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", time.Second)
	_, err := c.Send(context.Background(), EndpointExperiences, map[string]any{"bad": make(chan int)}, "post", "k")
	assert.Error(t, err)
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	c := NewClient(&structures.Config{}, &testutil.MockLogger{}, &testutil.MockMetrics{})
	assert.Equal(t, DefaultTimeout, c.http.Timeout)
	assert.Equal(t, "appero-go", c.userAgent)
}
