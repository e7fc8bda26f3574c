package entity

import (
	"fmt"
	"time"
)

type BucketSize string

const (
	BucketDay   BucketSize = "day"
	BucketWeek  BucketSize = "week"
	BucketMonth BucketSize = "month"
)

func ParseBucketSize(s string) (BucketSize, error) {
	switch BucketSize(s) {
	case BucketDay, BucketWeek, BucketMonth:
		return BucketSize(s), nil
	}
	return "", fmt.Errorf("unknown bucket size %q", s)
}

// KPIBucket holds the counters for one calendar interval. The JSON
// field names are a compatibility contract with the dashboard.
type KPIBucket struct {
	Label          string `json:"label"`
	LeadsCount     int    `json:"leadsCount"`
	ConvertedCount int    `json:"convertedCount"`
	MessagesCount  int    `json:"messagesCount"`
	LoyaltyPoints  int64  `json:"loyaltyPoints"`
}

// KPISnapshot is immutable once published; a new snapshot fully
// replaces the prior one.
type KPISnapshot struct {
	GeneratedAt time.Time   `json:"generatedAt"`
	Buckets     []KPIBucket `json:"buckets"`
}
