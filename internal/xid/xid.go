package xid

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New returns a random id, optionally prefixed ("REF-6f1c...").
func New(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return fmt.Sprintf("%s-%s", prefix, strings.ReplaceAll(id, "-", ""))
}

// Timestamped returns prefix-<unix millis>, the order number format.
func Timestamped(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%d", prefix, at.UnixMilli())
}

// TimeString renders at as a decimal nanosecond string; ledger entries use it as id.
func TimeString(at time.Time) string {
	return strconv.FormatInt(at.UnixNano(), 10)
}
