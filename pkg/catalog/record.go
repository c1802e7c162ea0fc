package catalog

import "encoding/json"

// Record is one raw entry of a catalog search page.
type Record struct {
	ID                int64    `json:"id"`
	ItemType          string   `json:"itemType"`
	AssetType         *int     `json:"assetType"`
	Name              string   `json:"name"`
	ItemRestrictions  []string `json:"itemRestrictions"`
	CreatorName       string   `json:"creatorName"`
	CreatorTargetID   int64    `json:"creatorTargetId"`
	Price             *int64   `json:"price"`
	LowestPrice       *int64   `json:"lowestPrice"`
	CollectibleItemID *string  `json:"collectibleItemId"`
	HasResellers      *bool    `json:"hasResellers"`

	// HasResellersKey reports whether hasResellers was present at all, null included.
	HasResellersKey bool `json:"-"`
}

// UnmarshalJSON decodes the record and notes whether hasResellers was sent.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, p.HasResellersKey = keys["hasResellers"]

	*r = Record(p)
	return nil
}

// CollectibleID returns the collectible item id, or "" when there is none.
func (r Record) CollectibleID() string {
	if r.CollectibleItemID == nil {
		return ""
	}
	return *r.CollectibleItemID
}

type searchPage struct {
	Data           []Record `json:"data"`
	NextPageCursor *string  `json:"nextPageCursor"`
}

type resellersPage struct {
	Data []struct {
		Seller struct {
			Name string `json:"name"`
		} `json:"seller"`
	} `json:"data"`
	NextPageCursor *string `json:"nextPageCursor"`
}

type resaleDataBody struct {
	Sales              *int64 `json:"sales"`
	RecentAveragePrice *int64 `json:"recentAveragePrice"`
}

type itemDetails struct {
	Sales *int64 `json:"sales"`
}

func cursorValue(c *string) string {
	if c == nil {
		return ""
	}
	return *c
}
