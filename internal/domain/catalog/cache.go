package catalog

const (
	productKeyPrefix = "catalog:product:"

	// ProductListKey memoizes the full product listing.
	ProductListKey = "catalog:products"
	// ProductKeyPattern matches every single-product entry.
	ProductKeyPattern = productKeyPrefix + "*"
)

func ProductKey(id string) string {
	return productKeyPrefix + id
}
