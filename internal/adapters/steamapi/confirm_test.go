package steamapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeev/steamloot/internal/domain"
	"github.com/avdeev/steamloot/internal/ports"
)

const confirmationListPage = `<html><body>
	<div class="mobileconf_list_entry" data-confid="111" data-key="k111" data-creator="9999"></div>
	<div class="mobileconf_list_entry" data-confid="222" data-key="k222" data-creator="4242"></div>
</body></html>`

func newTestApprover(t *testing.T, mux *http.ServeMux) *Approver {
	t.Helper()

	session := newTestSession(t, mux, domain.Credentials{
		Login:          "alice",
		SharedSecret:   testSharedSecret,
		IdentitySecret: testSharedSecret,
		DeviceID:       "android:test-device",
	})

	return NewApprover(session, testLogger(), ports.SystemClock{})
}

func TestAcceptTradeOffer(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/mobileconf/conf", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "android:test-device", query.Get("p"))
		assert.Equal(t, "76561197990000001", query.Get("a"))
		assert.NotEmpty(t, query.Get("k"))
		assert.NotEmpty(t, query.Get("t"))
		assert.Equal(t, "react", query.Get("m"))
		assert.Equal(t, "conf", query.Get("tag"))

		_, _ = w.Write([]byte(confirmationListPage))
	})
	mux.HandleFunc("/mobileconf/ajaxop", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "allow", query.Get("op"))
		assert.Equal(t, "allow", query.Get("tag"))
		assert.Equal(t, "222", query.Get("cid"))
		assert.Equal(t, "k222", query.Get("ck"))

		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	approver := newTestApprover(t, mux)

	err := approver.AcceptTradeOffer(context.Background(), testWebSession, 4242)
	require.NoError(t, err)
}

func TestAcceptTradeOfferFailsWhenConfirmationNeverAppears(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/mobileconf/conf", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body></body></html>`))
	})

	approver := newTestApprover(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := approver.AcceptTradeOffer(ctx, testWebSession, 4242)
	require.ErrorIs(t, err, domain.ErrConfirmationFailed)
}

func TestAcceptTradeOfferRejectedAnswer(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/mobileconf/conf", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(confirmationListPage))
	})
	mux.HandleFunc("/mobileconf/ajaxop", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "try again"})
	})

	approver := newTestApprover(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := approver.AcceptTradeOffer(ctx, testWebSession, 4242)
	require.ErrorIs(t, err, domain.ErrConfirmationFailed)
}
