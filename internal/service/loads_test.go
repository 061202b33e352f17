package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
	"github.com/boddenberg/shop-billing-bfa-go/internal/service"

	"go.uber.org/zap"
)

type fakeLoadStore struct {
	entries []domain.LoadEntry
}

func (f *fakeLoadStore) CreateLoadEntry(_ context.Context, entry *domain.LoadEntry) (*domain.LoadEntry, error) {
	cp := *entry
	cp.CreatedAt = time.Now()
	f.entries = append(f.entries, cp)
	out := cp
	return &out, nil
}

func (f *fakeLoadStore) ListLoadEntries(_ context.Context, _ string, _, _ int) ([]domain.LoadEntry, error) {
	return append([]domain.LoadEntry(nil), f.entries...), nil
}

func (f *fakeLoadStore) DeleteLoadEntry(_ context.Context, _, entryID string) error {
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.ID != entryID {
			kept = append(kept, e)
		}
	}
	f.entries = kept
	return nil
}

func loadRequest() *domain.LoadEntryRequest {
	return &domain.LoadEntryRequest{
		EntryDate:        "2026-08-31",
		NoOfBoxes:        40,
		QuantityWithBox:  820.5,
		NoOfBoxesAfter:   40,
		QuantityAfterBox: 780,
		ProductID:        "prod-1",
		SupplierID:       "sup-1",
	}
}

func TestCreateLoadEntry_RecordsEntry(t *testing.T) {
	store := &fakeLoadStore{}
	svc := service.NewLoadService(store, 5*time.Second, zap.NewNop())

	entry, err := svc.CreateLoadEntry(context.Background(), testBusiness, loadRequest())
	if err != nil {
		t.Fatalf("CreateLoadEntry: %v", err)
	}
	if entry.ID == "" {
		t.Error("expected a generated entry ID")
	}
	if entry.NoOfBoxes != 40 || entry.QuantityWithBox != 820.5 {
		t.Errorf("entry = %+v, want 40 boxes at 820.5 kg", entry)
	}
	if len(store.entries) != 1 {
		t.Fatalf("stored entries = %d, want 1", len(store.entries))
	}
}

func TestCreateLoadEntry_ValidationRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.LoadEntryRequest)
	}{
		{"missing product", func(r *domain.LoadEntryRequest) { r.ProductID = "" }},
		{"missing supplier", func(r *domain.LoadEntryRequest) { r.SupplierID = "" }},
		{"bad date", func(r *domain.LoadEntryRequest) { r.EntryDate = "31-08-2026" }},
		{"zero boxes", func(r *domain.LoadEntryRequest) { r.NoOfBoxes = 0 }},
		{"zero quantity", func(r *domain.LoadEntryRequest) { r.QuantityWithBox = 0 }},
		{"NaN quantity", func(r *domain.LoadEntryRequest) { r.QuantityWithBox = math.NaN() }},
		{"negative boxes after", func(r *domain.LoadEntryRequest) { r.NoOfBoxesAfter = -1 }},
		{"negative quantity after", func(r *domain.LoadEntryRequest) { r.QuantityAfterBox = -5 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeLoadStore{}
			svc := service.NewLoadService(store, 5*time.Second, zap.NewNop())

			req := loadRequest()
			tc.mutate(req)

			_, err := svc.CreateLoadEntry(context.Background(), testBusiness, req)
			var ve *domain.ErrValidation
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *domain.ErrValidation", err)
			}
			if len(store.entries) != 0 {
				t.Errorf("stored entries = %d, want 0", len(store.entries))
			}
		})
	}
}

func TestDeleteLoadEntry_RemovesEntry(t *testing.T) {
	store := &fakeLoadStore{}
	svc := service.NewLoadService(store, 5*time.Second, zap.NewNop())

	entry, err := svc.CreateLoadEntry(context.Background(), testBusiness, loadRequest())
	if err != nil {
		t.Fatalf("CreateLoadEntry: %v", err)
	}

	if err := svc.DeleteLoadEntry(context.Background(), testBusiness, entry.ID); err != nil {
		t.Fatalf("DeleteLoadEntry: %v", err)
	}
	remaining, _ := svc.ListLoadEntries(context.Background(), testBusiness, 1, 20)
	if len(remaining) != 0 {
		t.Errorf("entries after delete = %d, want 0", len(remaining))
	}
}
