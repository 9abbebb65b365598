package steamapi

import (
	"strconv"

	"github.com/avdeev/steamloot/internal/domain"
)

// The one-directional offer document posted as json_tradeoffer.
// Version 4 with newversion set is what the trade page itself sends.
type offerDoc struct {
	NewVersion bool       `json:"newversion"`
	Version    int        `json:"version"`
	Me         offerParty `json:"me"`
	Them       offerParty `json:"them"`
}

type offerParty struct {
	Assets   []offerAsset `json:"assets"`
	Currency []any        `json:"currency"`
	Ready    bool         `json:"ready"`
}

type offerAsset struct {
	AppID     string `json:"appid"`
	ContextID string `json:"contextid"`
	Amount    int    `json:"amount"`
	AssetID   string `json:"assetid"`
}

// buildOfferDoc lists every asset on the sender's side; the receiver's
// side stays empty. An unparseable stack amount falls back to 1.
func buildOfferDoc(assets []domain.Asset) offerDoc {
	doc := offerDoc{
		NewVersion: true,
		Version:    4,
		Me:         offerParty{Assets: make([]offerAsset, 0, len(assets)), Currency: []any{}},
		Them:       offerParty{Assets: []offerAsset{}, Currency: []any{}},
	}

	for _, asset := range assets {
		amount, err := strconv.Atoi(asset.Amount)
		if err != nil || amount < 1 {
			amount = 1
		}

		doc.Me.Assets = append(doc.Me.Assets, offerAsset{
			AppID:     strconv.Itoa(asset.AppID),
			ContextID: asset.ContextID,
			Amount:    amount,
			AssetID:   asset.AssetID,
		})
	}

	return doc
}
