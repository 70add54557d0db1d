package colors

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *ColorCache {
	t.Helper()
	cache, err := NewColorCache(filepath.Join(t.TempDir(), "org_colors.json"))
	if err != nil {
		t.Fatalf("NewColorCache failed: %v", err)
	}
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return cache
}

func TestGetColorIDStable(t *testing.T) {
	cache := newTestCache(t)

	first := cache.GetColorID("org_a")
	second := cache.GetColorID("org_b")
	if first == second {
		t.Errorf("Expected distinct colors, both got %s", first)
	}
	if again := cache.GetColorID("org_a"); again != first {
		t.Errorf("Expected org_a to keep color %s, got %s", first, again)
	}
	if got := cache.GetColorID(""); got != defaultColor {
		t.Errorf("Expected default color for empty org, got %s", got)
	}
}

func TestGetColorIDEvictsLeastRecentlyUsed(t *testing.T) {
	cache := newTestCache(t)

	// One color is reserved for sessions without an organization.
	for i := firstColor; i < lastColor; i++ {
		cache.GetColorID(fmt.Sprintf("org_%d", i))
	}
	// Touch org_1 so org_2 becomes the oldest.
	org1 := cache.GetColorID("org_1")
	org2 := cache.Orgs["org_2"].ColorID

	got := cache.GetColorID("org_new")
	if got != org2 {
		t.Errorf("Expected org_new to take org_2's color %s, got %s", org2, got)
	}
	if _, ok := cache.Orgs["org_2"]; ok {
		t.Error("Expected org_2 to be evicted")
	}
	if cache.Orgs["org_1"].ColorID != org1 {
		t.Error("Expected recently used org_1 to keep its color")
	}
}

func TestColorCachePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "org_colors.json")
	cache, err := NewColorCache(path)
	if err != nil {
		t.Fatal(err)
	}
	want := cache.GetColorID("org_a")
	if err := cache.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := NewColorCache(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.GetColorID("org_a"); got != want {
		t.Errorf("Expected persisted color %s, got %s", want, got)
	}
}

func TestGetColorIDNeverHandsOutDefault(t *testing.T) {
	cache := newTestCache(t)

	for i := 0; i < 3*lastColor; i++ {
		org := fmt.Sprintf("org_%d", i)
		if got := cache.GetColorID(org); got == defaultColor {
			t.Fatalf("Expected %s not to get the no-organization color %s", org, defaultColor)
		}
	}
}

func TestColorCacheNullFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "org_colors.json")
	if err := os.WriteFile(path, []byte("null"), 0600); err != nil {
		t.Fatal(err)
	}

	cache, err := NewColorCache(path)
	if err != nil {
		t.Fatalf("NewColorCache failed: %v", err)
	}
	if got := cache.GetColorID("org_a"); got == "" || got == defaultColor {
		t.Errorf("Expected a fresh color for org_a, got %q", got)
	}
}
