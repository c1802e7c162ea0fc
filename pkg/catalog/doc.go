// Package catalog walks the marketplace catalog and turns every search
// record into a flat Item.
//
// The pieces run in this order for each record:
//
//	Walker      pages through catalog search for every configured category
//	Normalizer  derives type, tradable and holding period from the record
//	ResaleChain fills quantity sold and average price from the first source with data
//	ResellerCollector lists seller names for collectibles that have resellers
//
// Dedupe then drops repeated (id, type) pairs, keeping the first.
//
// All requests go through a Fetcher, normally *client.Client, one at a time.
package catalog

import "context"

// Fetcher performs JSON requests. found is false when the API has no data
// for the request (HTTP 400).
type Fetcher interface {
	GetJSON(ctx context.Context, endpoint, url string, out any) (found bool, err error)
	PostJSON(ctx context.Context, endpoint, url string, body, out any) (found bool, err error)
}
