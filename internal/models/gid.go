package models

import "strings"

const productGIDPrefix = "gid://shopify/Product/"

// NormalizeID reduces a Shopify GID (gid://shopify/Product/123,
// gid://shopify/ProductVariant/456) to its trailing segment so that
// resource-style and bare identifiers compare equal. Bare ids pass through.
func NormalizeID(id string) string {
	if id == "" {
		return ""
	}
	if !strings.Contains(id, "gid://") {
		return id
	}
	parts := strings.Split(id, "/")
	return parts[len(parts)-1]
}

// ProductGID returns the canonical product identifier stored in
// product_pdfs.product_id for a bare numeric product id. Ids that are
// already GIDs are returned unchanged.
func ProductGID(id string) string {
	if id == "" || strings.Contains(id, "gid://") {
		return id
	}
	return productGIDPrefix + id
}

// NormalizeShopDomain strips the protocol and any trailing slash from a shop
// domain header value.
func NormalizeShopDomain(shop string) string {
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	return strings.TrimSuffix(shop, "/")
}

// ShopName returns the display name of a shop domain, without the
// .myshopify.com suffix.
func ShopName(shop string) string {
	return strings.TrimSuffix(shop, ".myshopify.com")
}
