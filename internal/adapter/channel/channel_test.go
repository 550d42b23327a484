package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-alert-service/internal/alert"
	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

var testMessage = alert.Message{Title: "HIGH ALERT: Coastal flooding", Body: "Rising water levels."}

func TestPush_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send", r.URL.Path)
		var p pushPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "token-1", p.Token)
		assert.Equal(t, testMessage.Title, p.Title)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewPush(srv.URL, time.Second)
	assert.Equal(t, domain.ChannelPush, ch.Name())
	require.NoError(t, ch.Send(context.Background(), "token-1", testMessage))
}

func TestEmail_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p emailPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "near@example.com", p.To)
		assert.Equal(t, testMessage.Title, p.Subject)
		assert.Equal(t, testMessage.Body, p.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ch := NewEmail(srv.URL, time.Second)
	assert.Equal(t, domain.ChannelEmail, ch.Name())
	require.NoError(t, ch.Send(context.Background(), "near@example.com", testMessage))
}

func TestSMS_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p smsPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "+358401234567", p.To)
		assert.Contains(t, p.Message, testMessage.Title)
		assert.Contains(t, p.Message, testMessage.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewSMS(srv.URL, time.Second)
	assert.Equal(t, domain.ChannelSMS, ch.Name())
	require.NoError(t, ch.Send(context.Background(), "+358401234567", testMessage))
}

func TestWebhook_SendPostsToTargetURL(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alerts/incoming", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var buf [1024]byte
		n, _ := r.Body.Read(buf[:])
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewWebhook(time.Second)
	assert.Equal(t, domain.ChannelWebhook, ch.Name())
	msg := alert.Message{Title: "ALERT-1", Body: `{"id":"ALERT-1"}`}
	require.NoError(t, ch.Send(context.Background(), srv.URL+"/alerts/incoming", msg))
	assert.JSONEq(t, `{"id":"ALERT-1"}`, gotBody)
}

func TestChannels_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	channels := []alert.Channel{
		NewPush(srv.URL, time.Second),
		NewEmail(srv.URL, time.Second),
		NewSMS(srv.URL, time.Second),
	}
	for _, ch := range channels {
		err := ch.Send(context.Background(), "addr", testMessage)
		require.Error(t, err, ch.Name())
		assert.Contains(t, err.Error(), "status 429")
	}

	wh := NewWebhook(time.Second)
	err := wh.Send(context.Background(), srv.URL, testMessage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}
