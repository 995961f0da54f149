package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"admarket/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:repo_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Placement{}, &domain.Ad{}, &domain.Booking{}, &domain.Payment{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return NewStore(db)
}

type fixture struct {
	user      *domain.User
	placement *domain.Placement
	ad        *domain.Ad
}

func seedFixture(t *testing.T, s *Store) fixture {
	t.Helper()
	ctx := context.Background()

	u := &domain.User{Email: "adv@example.com", PasswordHash: "x", Name: "Acme Ads", Role: domain.RoleAdvertiser}
	require.NoError(t, s.DB().Create(u).Error)

	p := &domain.Placement{PlacementName: "Homepage Banner", PlacementCode: "HOME_TOP",
		BasePricePerDay: decimal.RequireFromString("50.00"), IsActive: true, MaxConcurrentAds: 1}
	require.NoError(t, s.Placements.Create(ctx, p))

	ad := &domain.Ad{AdvertiserID: u.ID, Title: "Spring Sale", Status: domain.AdApproved}
	require.NoError(t, s.Ads.Create(ctx, ad))

	return fixture{user: u, placement: p, ad: ad}
}

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func insertBooking(t *testing.T, s *Store, f fixture, start, end string, status domain.BookingStatus) *domain.Booking {
	t.Helper()
	pricing, err := domain.QuotePrice(f.placement.BasePricePerDay, day(start), day(end), decimal.Zero)
	require.NoError(t, err)

	b := domain.NewBooking(f.ad.ID, f.placement.ID, f.user.ID, day(start), day(end), pricing)
	b.Status = status
	require.NoError(t, s.Bookings.Create(context.Background(), b))
	return b
}

func TestFindConflicts_ClosedIntervalBoundaries(t *testing.T) {
	s := setupStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	existing := insertBooking(t, s, f, "2024-03-01", "2024-03-10", domain.BookingConfirmed)

	cases := []struct {
		start, end string
		conflict   bool
	}{
		{"2024-03-05", "2024-03-07", true},
		{"2024-02-25", "2024-03-01", true},
		{"2024-03-10", "2024-03-12", true},
		{"2024-02-01", "2024-04-01", true},
		{"2024-03-11", "2024-03-15", false},
		{"2024-02-20", "2024-02-29", false},
	}

	for _, tc := range cases {
		got, err := s.Bookings.FindConflicts(ctx, f.placement.ID, day(tc.start), day(tc.end), 0)
		require.NoError(t, err)
		if tc.conflict {
			require.Lenf(t, got, 1, "%s..%s", tc.start, tc.end)
			assert.Equal(t, existing.ID, got[0].ID)
		} else {
			assert.Emptyf(t, got, "%s..%s", tc.start, tc.end)
		}
	}
}

func TestFindConflicts_OnlyBlockingStatuses(t *testing.T) {
	s := setupStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	insertBooking(t, s, f, "2024-05-01", "2024-05-05", domain.BookingPending)
	insertBooking(t, s, f, "2024-05-01", "2024-05-05", domain.BookingCancelled)
	insertBooking(t, s, f, "2024-05-01", "2024-05-05", domain.BookingCompleted)
	active := insertBooking(t, s, f, "2024-05-03", "2024-05-04", domain.BookingActive)

	got, err := s.Bookings.FindConflicts(ctx, f.placement.ID, day("2024-05-02"), day("2024-05-03"), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)

	got, err = s.Bookings.FindConflicts(ctx, f.placement.ID, day("2024-05-02"), day("2024-05-03"), active.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindConflicts_OtherPlacementIgnored(t *testing.T) {
	s := setupStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	insertBooking(t, s, f, "2024-06-01", "2024-06-10", domain.BookingConfirmed)

	other := &domain.Placement{PlacementName: "Sidebar", PlacementCode: "SIDEBAR",
		BasePricePerDay: decimal.NewFromInt(10), IsActive: true}
	require.NoError(t, s.Placements.Create(ctx, other))

	got, err := s.Bookings.FindConflicts(ctx, other.ID, day("2024-06-01"), day("2024-06-10"), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCalendar_WindowAndProjection(t *testing.T) {
	s := setupStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	insertBooking(t, s, f, "2024-01-01", "2024-01-05", domain.BookingConfirmed)
	insertBooking(t, s, f, "2024-02-01", "2024-02-05", domain.BookingActive)
	insertBooking(t, s, f, "2024-01-03", "2024-01-04", domain.BookingPending)

	all, err := s.Bookings.Calendar(ctx, CalendarFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Spring Sale", all[0].AdTitle)
	assert.Equal(t, "Homepage Banner", all[0].PlacementName)
	assert.Equal(t, "Acme Ads", all[0].UserName)
	assert.Equal(t, "2024-01-01", domain.FormatDate(all[0].StartDate))

	start, end := day("2024-01-05"), day("2024-01-31")
	window, err := s.Bookings.Calendar(ctx, CalendarFilter{PlacementID: f.placement.ID, Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, domain.BookingConfirmed, window[0].Status)

	from := day("2024-01-20")
	after, err := s.Bookings.Calendar(ctx, CalendarFilter{Start: &from})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, domain.BookingActive, after[0].Status)
}

func TestStatsForUser(t *testing.T) {
	s := setupStore(t)
	f := seedFixture(t, s)

	insertBooking(t, s, f, "2024-01-01", "2024-01-02", domain.BookingCompleted) // 100
	insertBooking(t, s, f, "2024-02-01", "2024-02-01", domain.BookingActive)    // 50
	insertBooking(t, s, f, "2024-03-01", "2024-03-04", domain.BookingPending)   // excluded
	insertBooking(t, s, f, "2024-04-01", "2024-04-01", domain.BookingCancelled) // excluded

	stats, err := s.Bookings.StatsForUser(context.Background(), f.user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.ByStatus[domain.BookingCompleted])
	assert.Equal(t, int64(1), stats.ByStatus[domain.BookingPending])
	assert.Equal(t, "150.00", stats.TotalRevenue.StringFixed(2))
}

func TestLifecycleQueries(t *testing.T) {
	s := setupStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	starting := insertBooking(t, s, f, "2024-07-01", "2024-07-03", domain.BookingConfirmed)
	insertBooking(t, s, f, "2024-07-10", "2024-07-12", domain.BookingConfirmed)
	ending := insertBooking(t, s, f, "2024-06-20", "2024-06-30", domain.BookingActive)

	today := day("2024-07-01")

	due, err := s.Bookings.DueForActivation(ctx, today)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, starting.ID, due[0].ID)

	done, err := s.Bookings.DueForCompletion(ctx, today)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, ending.ID, done[0].ID)
}

func TestPlacementCreate_DuplicateCode(t *testing.T) {
	s := setupStore(t)
	seedFixture(t, s)

	dup := &domain.Placement{PlacementName: "Copy", PlacementCode: "HOME_TOP", BasePricePerDay: decimal.NewFromInt(1)}
	err := s.Placements.Create(context.Background(), dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placement_code already exists")
}

func TestInTx_RollsBack(t *testing.T) {
	s := setupStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx *Store) error {
		if _, err := tx.Placements.LockByID(ctx, f.placement.ID); err != nil {
			return err
		}
		insertBooking(t, tx, f, "2024-08-01", "2024-08-02", domain.BookingPending)
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, s.DB().Model(&domain.Booking{}).Count(&count).Error)
	assert.Zero(t, count)
}
