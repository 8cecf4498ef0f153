package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhedlund/pricetracker/pkg/errors"
)

func testAlertWithLink() Alert {
	return Alert{
		Item:        "Widget",
		Title:       "Widget 3000",
		Price:       3900,
		TargetPrice: 4000,
		Link:        "https://shop.example/widget",
		ObservedAt:  time.Now(),
	}
}

func TestPushNotifierSendsLinkPush(t *testing.T) {
	var got pushPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-token", r.Header.Get("Access-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewPushNotifier("secret-token")
	n.baseURL = srv.URL

	require.NoError(t, n.Notify(context.Background(), testAlertWithLink()))
	assert.Equal(t, "link", got.Type)
	assert.Equal(t, "https://shop.example/widget", got.URL)
	assert.Contains(t, got.Title, "Widget")
	assert.Contains(t, got.Body, "3900")
	assert.Contains(t, got.Body, "4000")
}

func TestPushNotifierReportsDeliveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewPushNotifier("bad-token")
	n.baseURL = srv.URL

	err := n.Notify(context.Background(), testAlertWithLink())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindDelivery))
}

func TestPushNotifierTestSendsNote(t *testing.T) {
	var got pushPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewPushNotifier("secret-token")
	n.baseURL = srv.URL

	require.NoError(t, n.Test(context.Background()))
	assert.Equal(t, "note", got.Type)
}

func TestMultiAttemptsAllSinks(t *testing.T) {
	var delivered int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	working := NewPushNotifier("token")
	working.baseURL = srv.URL
	broken := NewPushNotifier("token")
	broken.baseURL = "http://127.0.0.1:1/unreachable"

	m := NewMulti(broken, working)
	err := m.Notify(context.Background(), testAlertWithLink())
	// The broken sink's failure is reported but the working sink still got
	// the alert.
	require.Error(t, err)
	assert.Equal(t, 1, delivered)
}
