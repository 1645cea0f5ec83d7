package middleware

import (
	"testing"
	"time"
)

func TestRecentUpdatesDeduplicates(t *testing.T) {
	r := &recentUpdates{seen: make(map[int]time.Time), keepFor: time.Second}
	now := time.Unix(1_700_000_000, 0)
	if r.alreadyLogged(5, now) {
		t.Fatal("first sighting reported as logged")
	}
	if !r.alreadyLogged(5, now.Add(500*time.Millisecond)) {
		t.Fatal("second sighting inside the window not deduplicated")
	}
	if r.alreadyLogged(5, now.Add(2*time.Second)) {
		t.Fatal("entry must expire after keepFor")
	}
}
