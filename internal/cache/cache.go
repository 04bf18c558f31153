package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Cache stores serialized reports keyed by document content
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
	Len() int
}

// ReportKey derives a cache key from everything that decides a report: the
// document text, the fast-track threshold and the calendar day (future-date
// checks and yearless dates depend on it).
func ReportKey(text string, threshold int64, day time.Time) string {
	h := sha256.New()
	h.Write([]byte(strconv.FormatInt(threshold, 10)))
	h.Write([]byte{0})
	h.Write([]byte(day.Format("2006-01-02")))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return "fnolroute:v1:" + hex.EncodeToString(h.Sum(nil))
}
