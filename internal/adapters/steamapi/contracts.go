package steamapi

import "github.com/avdeev/steamloot/internal/domain"

// Wire shapes for the community and web API endpoints. Field sets are
// trimmed to what the tool reads; unknown fields are ignored on
// decode.

type rsaKeyResponse struct {
	Success      bool   `json:"success"`
	PublicKeyMod string `json:"publickey_mod"`
	PublicKeyExp string `json:"publickey_exp"`
	Timestamp    string `json:"timestamp"`
}

type doLoginResponse struct {
	Success           bool   `json:"success"`
	RequiresTwoFactor bool   `json:"requires_twofactor"`
	Message           string `json:"message"`
	OAuthInfo         string `json:"oauth"`
}

type oauthInfo struct {
	SteamID       string `json:"steamid"`
	Token         string `json:"oauth_token"`
	WGTokenSecure string `json:"wgtoken_secure"`
}

type finalizeLoginResponse struct {
	SteamID      string         `json:"steamID"`
	TransferInfo []transferInfo `json:"transfer_info"`
}

type transferInfo struct {
	URL    string         `json:"url"`
	Params transferParams `json:"params"`
}

type transferParams struct {
	Nonce string `json:"nonce"`
	Auth  string `json:"auth"`
}

type inventoryEnvelope struct {
	Response inventoryPage `json:"response"`
}

type inventoryPage struct {
	Assets       []wireAsset       `json:"assets"`
	Descriptions []wireDescription `json:"descriptions"`
	LastAssetID  string            `json:"last_assetid"`
	MoreItems    int               `json:"more_items"`
	TotalCount   int               `json:"total_inventory_count"`
}

type wireAsset struct {
	AppID     int    `json:"appid"`
	ContextID string `json:"contextid"`
	AssetID   string `json:"assetid"`
	ClassID   string `json:"classid"`
	Amount    string `json:"amount"`
}

type wireDescription struct {
	AppID      int       `json:"appid"`
	ClassID    string    `json:"classid"`
	Tradable   int       `json:"tradable"`
	Marketable int       `json:"marketable"`
	MarketName string    `json:"market_name"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Tags       []wireTag `json:"tags"`
}

type wireTag struct {
	Category      string `json:"category"`
	InternalName  string `json:"internal_name"`
	LocalizedName string `json:"localized_tag_name"`
}

type sendOfferResponse struct {
	TradeOfferID            string `json:"tradeofferid"`
	Error                   string `json:"strError"`
	NeedsMobileConfirmation bool   `json:"needs_mobile_confirmation"`
}

type ajaxOpResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (p inventoryPage) domainAssets() []domain.Asset {
	assets := make([]domain.Asset, 0, len(p.Assets))
	for _, a := range p.Assets {
		assets = append(assets, domain.Asset{
			AppID:     a.AppID,
			ContextID: a.ContextID,
			AssetID:   a.AssetID,
			ClassID:   a.ClassID,
			Amount:    a.Amount,
		})
	}
	return assets
}

func (p inventoryPage) domainDescriptions() []domain.Description {
	descriptions := make([]domain.Description, 0, len(p.Descriptions))
	for _, d := range p.Descriptions {
		tags := make([]domain.Tag, 0, len(d.Tags))
		for _, t := range d.Tags {
			tags = append(tags, domain.Tag{
				Category:      t.Category,
				InternalName:  t.InternalName,
				LocalizedName: t.LocalizedName,
			})
		}
		descriptions = append(descriptions, domain.Description{
			AppID:      d.AppID,
			ClassID:    d.ClassID,
			Tradable:   d.Tradable != 0,
			Marketable: d.Marketable != 0,
			MarketName: d.MarketName,
			Name:       d.Name,
			Type:       d.Type,
			Tags:       tags,
		})
	}
	return descriptions
}
