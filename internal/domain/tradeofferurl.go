package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

var tradeOfferURLPattern = regexp.MustCompile(`^https?://steamcommunity\.com/tradeoffer/new/\?partner=(\d+)&token=(.{8})/?$`)

// TradeOfferURL is a parsed destination trade-offer link. Partner is
// the receiving account id; Token is the 8-character offer access
// token embedded in the link.
type TradeOfferURL struct {
	Raw     string
	Partner AccountID
	Token   string
}

func ParseTradeOfferURL(raw string) (TradeOfferURL, error) {
	match := tradeOfferURLPattern.FindStringSubmatch(raw)
	if match == nil {
		return TradeOfferURL{}, fmt.Errorf("%w: %q", ErrInvalidTradeURL, raw)
	}

	partner, err := strconv.ParseUint(match[1], 10, 32)
	if err != nil {
		return TradeOfferURL{}, fmt.Errorf("%w: %q", ErrInvalidTradeURL, raw)
	}

	return TradeOfferURL{
		Raw:     raw,
		Partner: AccountID(partner),
		Token:   match[2],
	}, nil
}

// PartnerSteamID is the receiver's full 64-bit id, the `partner` form
// field of the submission POST.
func (u TradeOfferURL) PartnerSteamID() SteamID64 {
	return u.Partner.SteamID64()
}

func (u TradeOfferURL) String() string {
	return u.Raw
}
