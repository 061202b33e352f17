package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/cache"
	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
)

func TestCache_SetGet(t *testing.T) {
	c := cache.New[money.Cents](time.Minute)

	c.Set("biz-1:9876543210", 57000)

	got, ok := c.Get("biz-1:9876543210")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != 57000 {
		t.Errorf("got %d, want 57000", got)
	}
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	c := cache.New[money.Cents](time.Minute)

	if _, ok := c.Get("nope"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_Expires(t *testing.T) {
	c := cache.New[money.Cents](20 * time.Millisecond)

	c.Set("k", 100)
	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[money.Cents](time.Minute)

	c.Set("k", 100)
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to be gone after delete")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestCache_OverwriteReplacesValue(t *testing.T) {
	c := cache.New[money.Cents](time.Minute)

	c.Set("k", 100)
	c.Set("k", 250)

	got, _ := c.Get("k")
	if got != 250 {
		t.Errorf("got %d, want 250", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}
