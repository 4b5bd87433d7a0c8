package model

import "time"

// ObjectInfo is one object of a bucket listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}
