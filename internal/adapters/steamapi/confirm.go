package steamapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/avdeev/steamloot/internal/domain"
	"github.com/avdeev/steamloot/internal/ports"
	"github.com/avdeev/steamloot/internal/retry"
)

const (
	confirmAttempts = 5
	confirmDelay    = 5 * time.Second
)

// Approver accepts pending mobile confirmations for an account. The
// confirmation list is flaky, so the whole find-and-allow sequence is
// retried as a unit.
type Approver struct {
	session *Session
	logger  *slog.Logger
	clock   ports.Clock
}

func NewApprover(session *Session, logger *slog.Logger, clock ports.Clock) *Approver {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Approver{session: session, logger: logger, clock: clock}
}

type confirmation struct {
	ID  string
	Key string
}

// AcceptTradeOffer finds the confirmation created by the given trade
// offer and allows it.
func (a *Approver) AcceptTradeOffer(ctx context.Context, session domain.WebSession, offerID uint64) error {
	err := retry.Do(ctx, confirmAttempts, confirmDelay, func() error {
		conf, err := a.findConfirmation(ctx, session, offerID)
		if err != nil {
			a.logger.Debug("confirmation lookup failed", "login", a.session.Login(), "error", err)
			return err
		}
		return a.allow(ctx, session, conf)
	})
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrConfirmationFailed, err)
	}
	return nil
}

func (a *Approver) findConfirmation(ctx context.Context, session domain.WebSession, offerID uint64) (confirmation, error) {
	doc, err := a.fetchConfirmationPage(ctx, session)
	if err != nil {
		return confirmation{}, err
	}

	creator := strconv.FormatUint(offerID, 10)

	var found confirmation
	doc.Find("[data-confid]").EachWithBreak(func(_ int, entry *goquery.Selection) bool {
		if entry.AttrOr("data-creator", "") != creator {
			return true
		}
		found = confirmation{
			ID:  entry.AttrOr("data-confid", ""),
			Key: entry.AttrOr("data-key", ""),
		}
		return false
	})

	if found.ID == "" || found.Key == "" {
		return confirmation{}, fmt.Errorf("confirmation for offer %s not listed", creator)
	}

	return found, nil
}

func (a *Approver) fetchConfirmationPage(ctx context.Context, session domain.WebSession) (*goquery.Document, error) {
	query, err := a.confirmationQuery(session, "conf")
	if err != nil {
		return nil, err
	}

	endpoint := a.session.communityURL + "/mobileconf/conf?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create confirmation request: %w", err)
	}

	resp, err := a.session.Client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch confirmations: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch confirmations: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse confirmation page: %w", err)
	}

	return doc, nil
}

func (a *Approver) allow(ctx context.Context, session domain.WebSession, conf confirmation) error {
	query, err := a.confirmationQuery(session, "allow")
	if err != nil {
		return err
	}
	query.Set("op", "allow")
	query.Set("cid", conf.ID)
	query.Set("ck", conf.Key)

	endpoint := a.session.communityURL + "/mobileconf/ajaxop?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create allow request: %w", err)
	}

	resp, err := a.session.Client().Do(req)
	if err != nil {
		return fmt.Errorf("allow confirmation: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result ajaxOpResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&result); err != nil {
		return fmt.Errorf("decode allow response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("confirmation not accepted: %s", result.Message)
	}

	return nil
}

// confirmationQuery builds the authenticated parameter set shared by
// every mobileconf request. tag scopes the key to the operation.
func (a *Approver) confirmationQuery(session domain.WebSession, tag string) (url.Values, error) {
	now := a.clock.Now()

	key, err := ConfirmationKey(a.session.identitySecret(), tag, now)
	if err != nil {
		return nil, err
	}

	return url.Values{
		"p":   {a.session.DeviceID()},
		"a":   {session.SteamID.String()},
		"k":   {key},
		"t":   {strconv.FormatInt(now.Unix(), 10)},
		"m":   {"react"},
		"tag": {tag},
	}, nil
}
