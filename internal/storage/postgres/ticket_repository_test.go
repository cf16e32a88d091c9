package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/felixLandlord/eventRSVP/internal/domain"
	"github.com/felixLandlord/eventRSVP/internal/storage/postgres"
	"github.com/felixLandlord/eventRSVP/internal/testutil"
)

func TestTicketRepository_CreateTierRequiresEvent(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewTicketRepository(pool)

	tier := domain.TicketTier{
		ID:            uuid.NewString(),
		EventID:       uuid.NewString(),
		Name:          "VIP",
		Currency:      "USD",
		QuantityTotal: 10,
		CreatedAt:     time.Now(),
	}
	if err := repo.CreateTier(ctx, tier); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound for dangling event, got %v", err)
	}
}

func TestTicketRepository_ListTiersOrderedByPrice(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewTicketRepository(pool)
	eventID, _, _ := testutil.InsertEventAndTier(t, ctx, pool, "Priced Event", 100)

	vip := domain.TicketTier{
		ID:            uuid.NewString(),
		EventID:       eventID,
		Name:          "VIP",
		PriceCents:    25000,
		Currency:      "USD",
		QuantityTotal: 10,
		CreatedAt:     time.Now(),
	}
	if err := repo.CreateTier(ctx, vip); err != nil {
		t.Fatalf("create vip tier: %v", err)
	}

	tiers, err := repo.ListTiersByEvent(ctx, eventID)
	if err != nil {
		t.Fatalf("list tiers: %v", err)
	}
	if len(tiers) != 2 {
		t.Fatalf("expected 2 tiers, got %d", len(tiers))
	}
	if tiers[0].Name != "General Admission" || tiers[1].Name != "VIP" {
		t.Fatalf("expected price ordering, got %q then %q", tiers[0].Name, tiers[1].Name)
	}
}

func TestTicketRepository_UpdateTierCapacity(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	tickets := postgres.NewTicketRepository(pool)
	rsvps := postgres.NewRSVPRepository(pool)
	eventID, tierID, _ := testutil.InsertEventAndTier(t, ctx, pool, "Resized Event", 10)

	// Sell 4 units through the allocation path.
	for i := 0; i < 4; i++ {
		if err := rsvps.Reserve(ctx, eventID, tierID); err != nil {
			t.Fatalf("reserve %d: %v", i, err)
		}
	}

	if err := tickets.UpdateTierCapacity(ctx, tierID, 6); err != nil {
		t.Fatalf("shrink to 6: %v", err)
	}
	tier, err := tickets.GetTier(ctx, tierID)
	if err != nil {
		t.Fatalf("get tier: %v", err)
	}
	if tier.QuantityTotal != 6 || tier.QuantitySold != 4 {
		t.Fatalf("unexpected tier after shrink: %+v", tier)
	}

	if err := tickets.UpdateTierCapacity(ctx, tierID, 3); !errors.Is(err, domain.ErrCapacityBelowSold) {
		t.Fatalf("expected ErrCapacityBelowSold, got %v", err)
	}
	tier, err = tickets.GetTier(ctx, tierID)
	if err != nil {
		t.Fatalf("get tier after rejection: %v", err)
	}
	if tier.QuantityTotal != 6 {
		t.Fatalf("capacity must be unchanged after rejection, got %d", tier.QuantityTotal)
	}

	if err := tickets.UpdateTierCapacity(ctx, uuid.NewString(), 5); !errors.Is(err, domain.ErrTierNotFound) {
		t.Fatalf("expected ErrTierNotFound, got %v", err)
	}
}
