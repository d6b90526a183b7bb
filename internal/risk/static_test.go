package risk

import (
	"context"
	"testing"
)

func TestStaticStore_LookupHitAndMiss(t *testing.T) {
	store := NewStaticStore()
	store.Put(Profile{VendorID: "dark-web-corp", Level: LevelHigh, Note: "flagged by compliance"})

	p, err := store.Lookup(context.Background(), "dark-web-corp")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if p == nil || p.Level != LevelHigh {
		t.Fatalf("expected HIGH profile, got %+v", p)
	}

	miss, err := store.Lookup(context.Background(), "never-seen-gmbh")
	if err != nil {
		t.Fatalf("Lookup miss: %v", err)
	}
	if miss != nil {
		t.Fatalf("miss must return nil profile, got %+v", miss)
	}
}

func TestStaticStore_CaseInsensitiveVendorIDs(t *testing.T) {
	store := NewStaticStore()
	store.Put(Profile{VendorID: "AWS", Level: LevelLow})

	p, err := store.Lookup(context.Background(), "  aws ")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if p == nil || p.Level != LevelLow {
		t.Fatalf("expected LOW profile for normalized id, got %+v", p)
	}
}

func TestStaticStore_LookupHonorsCancelledContext(t *testing.T) {
	store := NewStaticStore()
	store.Put(Profile{VendorID: "aws", Level: LevelLow})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Lookup(ctx, "aws"); err == nil {
		t.Fatalf("expected error from cancelled context")
	}
}

func TestStaticStore_ReturnsCopies(t *testing.T) {
	store := NewStaticStore()
	store.Put(Profile{VendorID: "aws", Level: LevelLow})

	p, _ := store.Lookup(context.Background(), "aws")
	p.Level = LevelHigh

	again, _ := store.Lookup(context.Background(), "aws")
	if again.Level != LevelLow {
		t.Fatalf("caller mutation leaked into the store")
	}
}
