package order

import "fmt"

// CacheKey is the redis key under which an order detail is cached. Every
// write path that changes an order must delete this key.
func CacheKey(orderID int64) string {
	return fmt.Sprintf("order:%d", orderID)
}
