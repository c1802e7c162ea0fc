// Package pagination walks cursor-paginated marketplace endpoints.
//
// Marketplace list endpoints return an opaque nextPageCursor with every page;
// an empty or absent cursor marks the last page. Pages are fetched strictly
// one after another because each request needs the cursor of the previous
// response.
//
// Example usage:
//
//	_, err := pagination.Walk(ctx, "resellers", func(ctx context.Context, cursor string) (string, error) {
//		var page struct {
//			Data           []Reseller `json:"data"`
//			NextPageCursor string     `json:"nextPageCursor"`
//		}
//		if _, err := c.GetJSON(ctx, "resellers", resellersURL(id, cursor), &page); err != nil {
//			return "", err
//		}
//		all = append(all, page.Data...)
//		return page.NextPageCursor, nil
//	})
//
// Walk refuses to request a cursor it has already requested, so a
// misbehaving upstream cannot make it loop.
package pagination
