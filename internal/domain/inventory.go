package domain

// Asset is one copy of an item held in an inventory. AssetID is unique
// per copy; ClassID links the copy to its Description.
type Asset struct {
	AppID     int
	ContextID string
	AssetID   string
	ClassID   string
	Amount    string
}

// Tag is one category marker attached to a Description.
type Tag struct {
	Category      string
	InternalName  string
	LocalizedName string
}

// Description carries the per-class display data shared by every asset
// of that class.
type Description struct {
	AppID      int
	ClassID    string
	Tradable   bool
	Marketable bool
	MarketName string
	Name       string
	Type       string
	Tags       []Tag
}

// Inventory is the merged, de-duplicated view of one inventory source:
// assets keyed by asset id, descriptions keyed by class id.
type Inventory struct {
	Assets       map[string]Asset
	Descriptions map[string]Description
}

func NewInventory() Inventory {
	return Inventory{
		Assets:       map[string]Asset{},
		Descriptions: map[string]Description{},
	}
}

// Merge folds a page of assets and descriptions into the inventory.
// Adjacent pages can overlap at the continuation boundary; keying by
// id makes the merge idempotent.
func (inv Inventory) Merge(assets []Asset, descriptions []Description) {
	for _, asset := range assets {
		inv.Assets[asset.AssetID] = asset
	}
	for _, description := range descriptions {
		inv.Descriptions[description.ClassID] = description
	}
}

// InventorySource identifies one inventory to drain, e.g. app 730
// context "2".
type InventorySource struct {
	AppID     string
	ContextID string
}

func (s InventorySource) String() string {
	return s.AppID + "/" + s.ContextID
}
