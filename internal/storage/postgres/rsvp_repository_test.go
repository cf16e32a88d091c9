package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/felixLandlord/eventRSVP/internal/app"
	"github.com/felixLandlord/eventRSVP/internal/clock"
	"github.com/felixLandlord/eventRSVP/internal/credential"
	"github.com/felixLandlord/eventRSVP/internal/domain"
	"github.com/felixLandlord/eventRSVP/internal/notify"
	"github.com/felixLandlord/eventRSVP/internal/storage/postgres"
	"github.com/felixLandlord/eventRSVP/internal/testutil"
)

func TestRSVPRepository_ReserveConcurrentNeverOversells(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewRSVPRepository(pool)
	eventID, tierID, _ := testutil.InsertEventAndTier(t, ctx, pool, "Contested Event", 3)

	const attempts = 12
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Reserve(ctx, eventID, tierID)
		}(i)
	}
	wg.Wait()

	var ok, soldOut int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrSoldOut):
			soldOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 3 || soldOut != attempts-3 {
		t.Fatalf("expected 3 winners and %d sold-out, got %d and %d", attempts-3, ok, soldOut)
	}

	tier, err := repo.GetTier(ctx, tierID)
	if err != nil {
		t.Fatalf("get tier: %v", err)
	}
	if tier.QuantitySold != 3 {
		t.Fatalf("expected 3 sold, got %d", tier.QuantitySold)
	}
}

func TestRSVPRepository_ReserveErrors(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewRSVPRepository(pool)
	_, tierID, _ := testutil.InsertEventAndTier(t, ctx, pool, "Event A", 5)
	otherEventID, _, _ := testutil.InsertEventAndTier(t, ctx, pool, "Event B", 5)

	if err := repo.Reserve(ctx, otherEventID, tierID); !errors.Is(err, domain.ErrTierEventMismatch) {
		t.Fatalf("expected ErrTierEventMismatch, got %v", err)
	}
	if err := repo.Reserve(ctx, otherEventID, uuid.NewString()); !errors.Is(err, domain.ErrTierNotFound) {
		t.Fatalf("expected ErrTierNotFound, got %v", err)
	}
}

func TestRSVPRepository_ReleaseFloorsAtZero(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewRSVPRepository(pool)
	eventID, tierID, _ := testutil.InsertEventAndTier(t, ctx, pool, "Released Event", 5)

	if err := repo.Reserve(ctx, eventID, tierID); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := repo.Release(ctx, tierID); err != nil {
		t.Fatalf("release: %v", err)
	}
	// A stray second release must not drive the counter negative.
	if err := repo.Release(ctx, tierID); err != nil {
		t.Fatalf("double release: %v", err)
	}

	tier, err := repo.GetTier(ctx, tierID)
	if err != nil {
		t.Fatalf("get tier: %v", err)
	}
	if tier.QuantitySold != 0 {
		t.Fatalf("expected 0 sold, got %d", tier.QuantitySold)
	}
}

func TestRSVPRepository_UniqueActiveRSVPPerUser(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewRSVPRepository(pool)
	eventID, tierID, _ := testutil.InsertEventAndTier(t, ctx, pool, "Unique Event", 10)
	userID := testutil.NewUserID(t, ctx, pool)

	now := time.Now()
	first := domain.RSVP{
		ID:        uuid.NewString(),
		EventID:   eventID,
		TierID:    tierID,
		UserID:    userID,
		Status:    domain.RSVPStatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateRSVP(ctx, first); err != nil {
		t.Fatalf("create first rsvp: %v", err)
	}

	second := first
	second.ID = uuid.NewString()
	if err := repo.CreateRSVP(ctx, second); !errors.Is(err, domain.ErrDuplicateRSVP) {
		t.Fatalf("expected ErrDuplicateRSVP, got %v", err)
	}

	// Cancelling frees the slot in the partial unique index.
	if err := repo.UpdateRSVPStatus(ctx, first.ID, domain.RSVPStatusCancelled, nil); err != nil {
		t.Fatalf("cancel first rsvp: %v", err)
	}
	if err := repo.CreateRSVP(ctx, second); err != nil {
		t.Fatalf("expected re-rsvp after cancel, got %v", err)
	}
}

func TestRSVPRepository_CheckInStampSetOnce(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewRSVPRepository(pool)
	eventID, tierID, _ := testutil.InsertEventAndTier(t, ctx, pool, "Stamped Event", 10)
	userID := testutil.NewUserID(t, ctx, pool)
	rsvpID := testutil.InsertRSVP(t, ctx, pool, eventID, tierID, userID, domain.RSVPStatusConfirmed)

	firstStamp := time.Now().UTC().Truncate(time.Microsecond)
	if err := repo.UpdateRSVPStatus(ctx, rsvpID, domain.RSVPStatusAttended, &firstStamp); err != nil {
		t.Fatalf("check in: %v", err)
	}

	laterStamp := firstStamp.Add(time.Hour)
	if err := repo.UpdateRSVPStatus(ctx, rsvpID, domain.RSVPStatusAttended, &laterStamp); err != nil {
		t.Fatalf("second update: %v", err)
	}

	rsvp, err := repo.GetRSVPForUpdate(ctx, rsvpID)
	if err != nil {
		t.Fatalf("get rsvp: %v", err)
	}
	if rsvp.CheckedInAt == nil || !rsvp.CheckedInAt.Equal(firstStamp) {
		t.Fatalf("expected original stamp %v, got %v", firstStamp, rsvp.CheckedInAt)
	}
}

func TestRSVPRepository_WithTxRollsBackReservation(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewRSVPRepository(pool)
	eventID, tierID, _ := testutil.InsertEventAndTier(t, ctx, pool, "Rolled Back Event", 5)

	sentinel := errors.New("abort")
	err := repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := repo.Reserve(txCtx, eventID, tierID); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	tier, err := repo.GetTier(ctx, tierID)
	if err != nil {
		t.Fatalf("get tier: %v", err)
	}
	if tier.QuantitySold != 0 {
		t.Fatalf("expected reservation rolled back, got %d sold", tier.QuantitySold)
	}
}

func TestRSVPRepository_CheckInCounts(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewRSVPRepository(pool)
	eventID, tierID, _ := testutil.InsertEventAndTier(t, ctx, pool, "Tallied Event", 10)

	statuses := []domain.RSVPStatus{
		domain.RSVPStatusConfirmed,
		domain.RSVPStatusConfirmed,
		domain.RSVPStatusAttended,
		domain.RSVPStatusNoShow,
		domain.RSVPStatusCancelled,
	}
	for _, status := range statuses {
		userID := testutil.NewUserID(t, ctx, pool)
		testutil.InsertRSVP(t, ctx, pool, eventID, tierID, userID, status)
	}

	pending, checkedIn, noShow, total, err := repo.CheckInCounts(ctx, eventID)
	if err != nil {
		t.Fatalf("check-in counts: %v", err)
	}
	if pending != 2 || checkedIn != 1 || noShow != 1 || total != 5 {
		t.Fatalf("unexpected counts: pending=%d checkedIn=%d noShow=%d total=%d", pending, checkedIn, noShow, total)
	}
}

// TestRSVPService_EndToEnd drives the full allocation engine against
// Postgres: concurrent reservations against a 2-seat free event, then
// check-in and summary.
func TestRSVPService_EndToEnd(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewRSVPRepository(pool)
	issuer := credential.NewJWTIssuer([]byte("it-secret"), clock.NewSystem(), time.Hour)
	logger := zap.NewNop()
	svc := app.NewRSVPService(repo, clock.NewSystem(), issuer, notify.NewLogNotifier(logger), logger)

	eventID, tierID, organizerID := testutil.InsertEventAndTier(t, ctx, pool, "Two Seat Event", 2)

	const attempts = 6
	userIDs := make([]string, attempts)
	for i := range userIDs {
		userIDs[i] = testutil.NewUserID(t, ctx, pool)
	}

	results := make([]domain.RSVP, attempts)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.CreateRSVP(ctx, app.CreateRSVPInput{
				UserID:  userIDs[i],
				EventID: eventID,
				TierID:  tierID,
			})
		}(i)
	}
	wg.Wait()

	var winners []domain.RSVP
	for i, err := range errs {
		switch {
		case err == nil:
			winners = append(winners, results[i])
		case errors.Is(err, domain.ErrSoldOut):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(winners) != 2 {
		t.Fatalf("expected exactly 2 winners, got %d", len(winners))
	}

	// Scanner check-in for the first winner, using their credential.
	checked, err := svc.ValidateAndCheckIn(ctx, winners[0].Credential, eventID, organizerID)
	if err != nil {
		t.Fatalf("validate and check in: %v", err)
	}
	if checked.Status != domain.RSVPStatusAttended || checked.CheckedInAt == nil {
		t.Fatalf("unexpected rsvp after check-in: %+v", checked)
	}

	// Re-scanning the same credential must not move the stamp.
	if _, err := svc.ValidateAndCheckIn(ctx, winners[0].Credential, eventID, organizerID); !errors.Is(err, domain.ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
	}

	summary, err := svc.GetCheckInSummary(ctx, eventID, organizerID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := domain.CheckInSummary{
		PendingCheckin:    1,
		CheckedIn:         1,
		NoShow:            0,
		TotalRSVPs:        2,
		CheckinPercentage: 50,
	}
	if summary != want {
		t.Fatalf("expected %+v, got %+v", want, summary)
	}

	// The losing users can claim a freed seat after a cancellation.
	if err := svc.CancelRSVP(ctx, winners[1].ID, winners[1].UserID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	loser := ""
	for i, err := range errs {
		if errors.Is(err, domain.ErrSoldOut) {
			loser = userIDs[i]
			break
		}
	}
	if loser == "" {
		t.Fatal("expected at least one sold-out loser")
	}
	if _, err := svc.CreateRSVP(ctx, app.CreateRSVPInput{UserID: loser, EventID: eventID, TierID: tierID}); err != nil {
		t.Fatalf("expected freed seat to be reservable, got %v", err)
	}
}

func TestRSVPRepository_ListRSVPs(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewRSVPRepository(pool)
	eventID, tierID, _ := testutil.InsertEventAndTier(t, ctx, pool, "Listed Event", 10)
	otherEventID, otherTierID, _ := testutil.InsertEventAndTier(t, ctx, pool, "Other Event", 10)
	userID := testutil.NewUserID(t, ctx, pool)

	testutil.InsertRSVP(t, ctx, pool, eventID, tierID, userID, domain.RSVPStatusConfirmed)
	testutil.InsertRSVP(t, ctx, pool, otherEventID, otherTierID, userID, domain.RSVPStatusConfirmed)
	for i := 0; i < 2; i++ {
		other := testutil.NewUserID(t, ctx, pool)
		testutil.InsertRSVP(t, ctx, pool, eventID, tierID, other, domain.RSVPStatusConfirmed)
	}

	byUser, err := repo.ListRSVPsByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(byUser) != 2 {
		t.Fatalf("expected 2 rsvps for user, got %d", len(byUser))
	}

	byEvent, err := repo.ListRSVPsByEvent(ctx, eventID)
	if err != nil {
		t.Fatalf("list by event: %v", err)
	}
	if len(byEvent) != 3 {
		t.Fatalf("expected 3 rsvps for event, got %d", len(byEvent))
	}
}

func TestRSVPRepository_FindActiveRSVP(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewRSVPRepository(pool)
	eventID, tierID, _ := testutil.InsertEventAndTier(t, ctx, pool, "Active Event", 10)
	userID := testutil.NewUserID(t, ctx, pool)

	found, err := repo.FindActiveRSVP(ctx, userID, eventID)
	if err != nil {
		t.Fatalf("find before insert: %v", err)
	}
	if found != nil {
		t.Fatalf("expected no active rsvp, got %+v", found)
	}

	rsvpID := testutil.InsertRSVP(t, ctx, pool, eventID, tierID, userID, domain.RSVPStatusConfirmed)

	found, err = repo.FindActiveRSVP(ctx, userID, eventID)
	if err != nil {
		t.Fatalf("find after insert: %v", err)
	}
	if found == nil || found.ID != rsvpID {
		t.Fatalf("expected rsvp %s, got %+v", rsvpID, found)
	}

	if err := repo.UpdateRSVPStatus(ctx, rsvpID, domain.RSVPStatusCancelled, nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	found, err = repo.FindActiveRSVP(ctx, userID, eventID)
	if err != nil {
		t.Fatalf("find after cancel: %v", err)
	}
	if found != nil {
		t.Fatalf("cancelled rsvp must not be active, got %+v", found)
	}
}
