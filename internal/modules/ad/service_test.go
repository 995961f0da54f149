package ad

import (
	"context"
	"fmt"
	"testing"
	"time"

	"admarket/internal/apperror"
	"admarket/internal/config"
	"admarket/internal/database"
	"admarket/internal/domain"
	"admarket/internal/events"
	"admarket/internal/logger"
	"admarket/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type testEnv struct {
	svc        *Service
	store      *repository.Store
	pub        *mockPublisher
	advertiser domain.Requester
	stranger   domain.Requester
	moderator  domain.Requester
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:ad_%s?mode=memory&cache=shared", t.Name())
	db, err := database.Connect(&config.DatabaseConfig{URL: dsn, LogLevel: "silent"}, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	users := []*domain.User{
		{Email: "adv@example.com", PasswordHash: "x", Name: "Advertiser", Role: domain.RoleAdvertiser},
		{Email: "other@example.com", PasswordHash: "x", Name: "Other", Role: domain.RoleAdvertiser},
		{Email: "mod@example.com", PasswordHash: "x", Name: "Moderator", Role: domain.RoleModerator},
	}
	for _, u := range users {
		require.NoError(t, db.Create(u).Error)
	}

	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	store := repository.NewStore(db)

	return &testEnv{
		svc:        NewService(store, pub, logger.Discard()),
		store:      store,
		pub:        pub,
		advertiser: domain.Requester{UserID: users[0].ID, Role: domain.RoleAdvertiser},
		stranger:   domain.Requester{UserID: users[1].ID, Role: domain.RoleAdvertiser},
		moderator:  domain.Requester{UserID: users[2].ID, Role: domain.RoleModerator},
	}
}

func (e *testEnv) draft(t *testing.T) *domain.Ad {
	t.Helper()
	ad, err := e.svc.Create(context.Background(), e.advertiser, CreateAdRequest{
		Title:      "Summer Sale",
		WebsiteURL: "https://shop.example.com",
		StartDate:  "2024-06-01",
		EndDate:    "2024-06-30",
	})
	require.NoError(t, err)
	return ad
}

func (e *testEnv) live(t *testing.T) *domain.Ad {
	t.Helper()
	ctx := context.Background()
	ad := e.draft(t)
	_, err := e.svc.Submit(ctx, e.advertiser, ad.ID)
	require.NoError(t, err)
	_, err = e.svc.Approve(ctx, e.moderator, ad.ID)
	require.NoError(t, err)
	ad, err = e.svc.Publish(ctx, e.advertiser, ad.ID)
	require.NoError(t, err)
	return ad
}

func TestCreate_StartsAsDraft(t *testing.T) {
	env := setupEnv(t)

	ad := env.draft(t)

	assert.Equal(t, domain.AdDraft, ad.Status)
	assert.Equal(t, env.advertiser.UserID, ad.AdvertiserID)
	require.NotNil(t, ad.EndDate)
	assert.Equal(t, "2024-06-30", domain.FormatDate(*ad.EndDate))
}

func TestCreate_Validation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, env.advertiser, CreateAdRequest{WebsiteURL: "not a url"})
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "website_url")

	_, err = env.svc.Create(ctx, env.advertiser, CreateAdRequest{Title: "X", StartDate: "2024-06-30", EndDate: "2024-06-01"})
	assert.Contains(t, apperror.FieldsOf(err), "dates")
}

func TestReviewFlow(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	ad := env.draft(t)

	_, err := env.svc.Approve(ctx, env.moderator, ad.ID)
	assert.True(t, apperror.Is(err, apperror.KindInvalidTransition), "draft cannot be approved directly")

	_, err = env.svc.Submit(ctx, env.stranger, ad.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	submitted, err := env.svc.Submit(ctx, env.advertiser, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AdPendingReview, submitted.Status)

	_, err = env.svc.Approve(ctx, env.advertiser, ad.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = env.svc.Reject(ctx, env.moderator, ad.ID, "  ")
	assert.Contains(t, apperror.FieldsOf(err), "reason")

	rejected, err := env.svc.Reject(ctx, env.moderator, ad.ID, "misleading claims")
	require.NoError(t, err)
	assert.Equal(t, domain.AdRejected, rejected.Status)
	assert.Equal(t, "misleading claims", rejected.RejectionReason)
	require.NotNil(t, rejected.ReviewedBy)
	assert.Equal(t, env.moderator.UserID, *rejected.ReviewedBy)

	title := "Summer Sale (fixed)"
	edited, err := env.svc.Update(ctx, env.advertiser, ad.ID, UpdateAdRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, edited.Title)

	resubmitted, err := env.svc.Submit(ctx, env.advertiser, ad.ID)
	require.NoError(t, err)
	assert.Empty(t, resubmitted.RejectionReason)

	approved, err := env.svc.Approve(ctx, env.moderator, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AdApproved, approved.Status)
	assert.NotNil(t, approved.ReviewedAt)

	_, err = env.svc.Update(ctx, env.advertiser, ad.ID, UpdateAdRequest{Title: &title})
	assert.True(t, apperror.Is(err, apperror.KindInvalidTransition))

	var types []events.Type
	for _, call := range env.pub.Calls {
		types = append(types, call.Arguments.Get(1).(events.Event).Type)
	}
	assert.Equal(t, []events.Type{events.AdSubmitted, events.AdRejected, events.AdSubmitted, events.AdApproved}, types)
}

func TestPublishPauseAndExpire(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	ad := env.live(t)
	assert.Equal(t, domain.AdLive, ad.Status)

	paused, err := env.svc.Pause(ctx, env.advertiser, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AdPaused, paused.Status)

	_, err = env.svc.Publish(ctx, env.advertiser, ad.ID)
	assert.True(t, apperror.Is(err, apperror.KindInvalidTransition))

	other := env.live(t)
	_, err = env.svc.Pause(ctx, env.stranger, other.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestExpireEnded(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	ended := env.live(t) // window ends 2024-06-30
	running, err := env.svc.Create(ctx, env.advertiser, CreateAdRequest{Title: "Evergreen"})
	require.NoError(t, err)
	_, err = env.svc.Submit(ctx, env.advertiser, running.ID)
	require.NoError(t, err)
	_, err = env.svc.Approve(ctx, env.moderator, running.ID)
	require.NoError(t, err)
	_, err = env.svc.Publish(ctx, env.advertiser, running.ID)
	require.NoError(t, err)

	today, _ := domain.ParseDate("2024-07-01")
	n, err := env.svc.ExpireEnded(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := env.store.Ads.GetByID(ctx, ended.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AdExpired, got.Status)

	got, err = env.store.Ads.GetByID(ctx, running.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AdLive, got.Status)

	lastDay, _ := domain.ParseDate("2024-06-30")
	n, err = env.svc.ExpireEnded(ctx, lastDay)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTrackingAndStatistics(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	draft := env.draft(t)
	assert.True(t, apperror.Is(env.svc.TrackImpression(ctx, draft.ID), apperror.KindNotFound))

	ad := env.live(t)
	for i := 0; i < 8; i++ {
		require.NoError(t, env.svc.TrackImpression(ctx, ad.ID))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, env.svc.TrackClick(ctx, ad.ID))
	}

	stats, err := env.svc.Statistics(ctx, env.advertiser, ad.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 8, stats.Impressions)
	assert.EqualValues(t, 3, stats.Clicks)
	assert.Equal(t, "37.50", stats.CTR)

	_, err = env.svc.Statistics(ctx, env.stranger, ad.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	stats, err = env.svc.Statistics(ctx, env.moderator, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", stats.CTR)
}

func TestListMineAndPending(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	a := env.draft(t)
	env.draft(t)
	_, err := env.svc.Submit(ctx, env.advertiser, a.ID)
	require.NoError(t, err)

	_, total, err := env.svc.ListMine(ctx, env.advertiser, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	items, total, err := env.svc.ListMine(ctx, env.advertiser, "draft", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, items, 1)

	_, _, err = env.svc.ListMine(ctx, env.advertiser, "archived", 1, 10)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	pending, total, err := env.svc.ListPendingReview(ctx, env.moderator, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, a.ID, pending[0].ID)

	_, _, err = env.svc.ListPendingReview(ctx, env.advertiser, 1, 10)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestUpdate_DisplayWindow(t *testing.T) {
	env := setupEnv(t)
	ad := env.draft(t)

	end := "2024-05-01"
	_, err := env.svc.Update(context.Background(), env.advertiser, ad.ID, UpdateAdRequest{EndDate: &end})
	assert.Contains(t, apperror.FieldsOf(err), "dates")

	end = "2024-07-15"
	updated, err := env.svc.Update(context.Background(), env.advertiser, ad.ID, UpdateAdRequest{EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", domain.FormatDate(*updated.StartDate))
	assert.True(t, updated.EndDate.Equal(time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)))
}
