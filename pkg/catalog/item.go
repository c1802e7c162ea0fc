package catalog

import (
	"encoding/json"
	"fmt"
)

// Item restrictions that drive the derived flags.
const (
	RestrictionLimited       = "Limited"
	RestrictionLimitedUnique = "LimitedUnique"
	RestrictionCollectible   = "Collectible"
)

// TypeBundle is the type of every bundle, whatever its asset type code.
const TypeBundle = "Bundle"

// ResellersFailed is exported in place of the reseller list when it could not be decoded.
const ResellersFailed = "error"

// Item is one normalized catalog entry. Optional numbers are nil when the
// source did not provide them.
type Item struct {
	ID            int64
	Name          string
	Type          string // empty when the asset type code is not known
	Restrictions  []string
	CreatorName   string
	CreatorID     int64
	BestPrice     *int64
	Tradable      bool
	HoldingPeriod bool
	QuantitySold  *int64
	OriginalPrice *int64
	AveragePrice  *int64
	Resellers     *Resellers
}

// Resellers is either the seller names of a collectible or a failed lookup.
type Resellers struct {
	Names  []string
	Failed bool
}

// String renders the list as JSON, or ResellersFailed.
func (r *Resellers) String() string {
	if r == nil {
		return ""
	}
	if r.Failed {
		return ResellersFailed
	}
	names := r.Names
	if names == nil {
		names = []string{}
	}
	b, _ := json.Marshal(names)
	return string(b)
}

// DedupeKey identifies an item for deduplication.
type DedupeKey struct {
	ID   int64
	Type string
}

// Key returns the deduplication key of the item.
func (it Item) Key() DedupeKey {
	return DedupeKey{ID: it.ID, Type: it.Type}
}

func (k DedupeKey) String() string {
	return fmt.Sprintf("%d/%s", k.ID, k.Type)
}

// Dedupe keeps the first item for every (id, type) pair, in input order.
func Dedupe(items []Item) []Item {
	seen := make(map[DedupeKey]struct{}, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		k := it.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
