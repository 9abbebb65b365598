package steamapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/avdeev/steamloot/internal/domain"
	"github.com/avdeev/steamloot/internal/retry"
)

const (
	inventoryPageSize     = 2000
	inventoryAttempts     = 3
	inventoryDelay        = 2 * time.Second
	offerRetryAttempts    = 3
	offerRetryDelay       = 10 * time.Second
	offerRetryBodyMarker  = "please try again later"
	guardTenureMarker     = "Steam Guard enabled for at least 15 days"
	restrictionLiftPrefix = "This restriction will be lifted in "
)

// TradeDelayedError reports a receiver whose account cannot trade yet;
// Until carries the remaining wait time scraped from the help page.
type TradeDelayedError struct {
	Until string
}

func (e *TradeDelayedError) Error() string {
	if e.Until == "" {
		return "trading is not available yet"
	}
	return "trading becomes available in " + e.Until
}

// Client performs the authenticated web calls of one account.
type Client struct {
	session *Session
	logger  *slog.Logger
}

func NewClient(session *Session, logger *slog.Logger) *Client {
	return &Client{session: session, logger: logger}
}

// LoadInventory walks one inventory source page by page and merges the
// pages into a de-duplicated view. A page carrying assets without
// descriptions is unusable; each page fetch is retried before the
// whole source is declared failed.
func (c *Client) LoadInventory(ctx context.Context, session domain.WebSession, source domain.InventorySource) (domain.Inventory, error) {
	inventory := domain.NewInventory()

	startAssetID := ""
	for {
		page, err := retry.DoValue(ctx, inventoryAttempts, inventoryDelay, func() (inventoryPage, error) {
			return c.fetchInventoryPage(ctx, session, source, startAssetID)
		})
		if err != nil {
			return domain.Inventory{}, fmt.Errorf("load inventory %s: %w", source, err)
		}

		inventory.Merge(page.domainAssets(), page.domainDescriptions())

		if page.LastAssetID == "" {
			return inventory, nil
		}
		startAssetID = page.LastAssetID
	}
}

func (c *Client) fetchInventoryPage(ctx context.Context, session domain.WebSession, source domain.InventorySource, startAssetID string) (inventoryPage, error) {
	query := url.Values{
		"steamid":          {session.SteamID.String()},
		"appid":            {source.AppID},
		"contextid":        {source.ContextID},
		"count":            {strconv.Itoa(inventoryPageSize)},
		"get_descriptions": {"true"},
		"access_token":     {session.AccessToken},
	}
	if startAssetID != "" {
		query.Set("start_assetid", startAssetID)
	}

	endpoint := c.session.webAPIURL + "/IEconService/GetInventoryItemsWithDescriptions/v1/?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return inventoryPage{}, fmt.Errorf("create inventory request: %w", err)
	}

	resp, err := c.session.Client().Do(req)
	if err != nil {
		return inventoryPage{}, fmt.Errorf("fetch inventory page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return inventoryPage{}, fmt.Errorf("fetch inventory page: status %d", resp.StatusCode)
	}

	var envelope inventoryEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&envelope); err != nil {
		return inventoryPage{}, fmt.Errorf("decode inventory page: %w", err)
	}

	page := envelope.Response
	if len(page.Assets) > 0 && len(page.Descriptions) == 0 {
		return inventoryPage{}, domain.ErrInventoryPartial
	}

	return page, nil
}

// SendTradeOffer gives the listed assets away to the trade URL's
// owner and returns the created offer id. The offer page is fetched
// first so the submission carries its referer. A 500 asking to try
// again later is retried; a guard-tenure rejection is reported as a
// TradeDelayedError with the scraped wait time.
func (c *Client) SendTradeOffer(ctx context.Context, session domain.WebSession, dest domain.TradeOfferURL, assets []domain.Asset) (uint64, error) {
	if err := c.visitOfferPage(ctx, dest); err != nil {
		return 0, err
	}

	offer := buildOfferDoc(assets)
	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return 0, fmt.Errorf("encode trade offer: %w", err)
	}

	createParams, err := json.Marshal(map[string]string{
		"trade_offer_access_token": dest.Token,
	})
	if err != nil {
		return 0, fmt.Errorf("encode offer params: %w", err)
	}

	form := url.Values{
		"sessionid":                 {session.SessionID},
		"serverid":                  {"1"},
		"partner":                   {dest.PartnerSteamID().String()},
		"tradeoffermessage":         {""},
		"captcha":                   {""},
		"trade_offer_create_params": {string(createParams)},
		"json_tradeoffer":           {string(offerJSON)},
	}

	result, err := retry.DoValue(ctx, offerRetryAttempts, offerRetryDelay, func() (sendOfferResponse, error) {
		return c.postOffer(ctx, dest, form)
	})
	if err != nil {
		return 0, err
	}

	if result.Error != "" {
		if strings.Contains(result.Error, guardTenureMarker) {
			until, scrapeErr := c.helpWhyCantITradeTime(ctx)
			if scrapeErr != nil {
				c.logger.Debug("help page scrape failed", "login", c.session.Login(), "error", scrapeErr)
			}
			return 0, &TradeDelayedError{Until: until}
		}
		return 0, fmt.Errorf("offer rejected: %s", result.Error)
	}

	offerID, err := strconv.ParseUint(result.TradeOfferID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrOfferIDMissing, result.TradeOfferID)
	}

	return offerID, nil
}

func (c *Client) visitOfferPage(ctx context.Context, dest domain.TradeOfferURL) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.offerPageURL(dest), nil)
	if err != nil {
		return fmt.Errorf("create offer page request: %w", err)
	}

	resp, err := c.session.Client().Do(req)
	if err != nil {
		return fmt.Errorf("fetch offer page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	return nil
}

func (c *Client) offerPageURL(dest domain.TradeOfferURL) string {
	return c.session.communityURL + "/tradeoffer/new/?partner=" + dest.Partner.String() + "&token=" + dest.Token
}

func (c *Client) postOffer(ctx context.Context, dest domain.TradeOfferURL, form url.Values) (sendOfferResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.session.communityURL+"/tradeoffer/new/send", strings.NewReader(form.Encode()))
	if err != nil {
		return sendOfferResponse{}, retry.Permanent(fmt.Errorf("create offer request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.offerPageURL(dest))

	resp, err := c.session.Client().Do(req)
	if err != nil {
		return sendOfferResponse{}, fmt.Errorf("send trade offer: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return sendOfferResponse{}, fmt.Errorf("read offer response: %w", err)
	}

	if resp.StatusCode == http.StatusInternalServerError &&
		strings.Contains(strings.ToLower(string(body)), offerRetryBodyMarker) {
		return sendOfferResponse{}, fmt.Errorf("send trade offer: server asked to try again later")
	}
	if resp.StatusCode != http.StatusOK {
		return sendOfferResponse{}, retry.Permanent(fmt.Errorf("send trade offer: status %d: %s", resp.StatusCode, truncate(body, 200)))
	}

	var result sendOfferResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return sendOfferResponse{}, retry.Permanent(fmt.Errorf("decode offer response: %w", err))
	}

	return result, nil
}

// helpWhyCantITradeTime scrapes the remaining trade restriction time
// from the help wizard page.
func (c *Client) helpWhyCantITradeTime(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.session.helpURL+"/en/wizard/HelpWhyCantITrade", nil)
	if err != nil {
		return "", fmt.Errorf("create help page request: %w", err)
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.session.Client().Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch help page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("parse help page: %w", err)
	}

	text := doc.Find(".info_box .help_highlight_text:last-child").Text()

	return strings.TrimPrefix(strings.TrimSpace(text), restrictionLiftPrefix), nil
}

func truncate(body []byte, n int) string {
	body = bytes.TrimSpace(body)
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
