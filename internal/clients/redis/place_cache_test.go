package redis

import (
	"strings"
	"testing"
)

func TestPlaceKeyIsExactAndPrefixed(t *testing.T) {
	a := placeKey("snapcal:place:", "Blue Moon Cafe")
	b := placeKey("snapcal:place:", "blue moon cafe")
	if a == b {
		t.Fatalf("keys must be case sensitive: exact query match")
	}
	if !strings.HasPrefix(a, "snapcal:place:") || len(a) != len("snapcal:place:")+64 {
		t.Fatalf("unexpected key shape: %q", a)
	}
	if placeKey("p:", "x") != placeKey("p:", "x") {
		t.Fatalf("key must be deterministic")
	}
}
