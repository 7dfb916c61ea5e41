package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/dvs/internal/models"
)

func strPtr(s string) *string { return &s }

func TestStorage_Integration(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)
	ctx := context.Background()

	adminID := factory.CreateUser(t, "admin@example.com", models.RoleAdmin)

	t.Run("пользователи", func(t *testing.T) {
		u, err := storage.GetUserByEmail(ctx, "ADMIN@example.com")
		require.NoError(t, err)
		assert.Equal(t, adminID, u.ID)
		assert.True(t, u.IsAdmin())

		_, err = storage.CreateUser(ctx, models.User{Email: "admin@example.com", PasswordHash: "x", Role: models.RoleUser, Name: "Dup"})
		assert.ErrorIs(t, err, models.ErrConflict)

		userID := factory.CreateUser(t, "user@example.com", models.RoleUser)
		updated, err := storage.UpdateUser(ctx, userID, models.UpdateUserRequest{Name: strPtr("Renamed")})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, models.RoleUser, updated.Role)

		require.NoError(t, storage.DeleteUser(ctx, userID))
		assert.ErrorIs(t, storage.DeleteUser(ctx, userID), models.ErrNotFound)
		_, err = storage.GetUser(ctx, userID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("категории", func(t *testing.T) {
		active, err := storage.ListCategories(ctx, true)
		require.NoError(t, err)
		assert.Len(t, active, 4)

		c, err := storage.CreateCategory(ctx, models.CreateCategoryRequest{Name: "Finance", ColorToken: "amber"})
		require.NoError(t, err)
		assert.True(t, c.IsActive)

		_, err = storage.CreateCategory(ctx, models.CreateCategoryRequest{Name: "Finance", ColorToken: "blue"})
		assert.ErrorIs(t, err, models.ErrConflict)

		off := false
		c, err = storage.UpdateCategory(ctx, c.ID, models.UpdateCategoryRequest{IsActive: &off})
		require.NoError(t, err)
		assert.False(t, c.IsActive)
		assert.Equal(t, "amber", c.ColorToken)

		ok, err := storage.IsCategoryActive(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		all, err := storage.ListCategories(ctx, false)
		require.NoError(t, err)
		assert.Len(t, all, 5)
		assert.False(t, all[len(all)-1].IsActive)

		require.NoError(t, storage.DeleteCategory(ctx, c.ID))
		assert.ErrorIs(t, storage.DeleteCategory(ctx, c.ID), models.ErrNotFound)
	})

	t.Run("интервалы и слоты", func(t *testing.T) {
		business := factory.CategoryID(t, "Business")
		gtID := factory.CreateGoodTiming(t, "Monday", "2025-09-01", "2025-09-07", adminID)

		slot, err := storage.CreateTimeSlot(ctx, gtID, models.TimeSlotRequest{
			StartTime: "09:00", EndTime: "10:30", CategoryID: business, Description: strPtr("meeting"),
		})
		require.NoError(t, err)
		assert.Equal(t, "09:00:00", slot.StartTime)
		assert.Equal(t, "Business", slot.CategoryName)
		assert.Equal(t, "blue", slot.CategoryColor)

		_, err = storage.CreateTimeSlot(ctx, gtID+1000, models.TimeSlotRequest{StartTime: "09:00", EndTime: "10:00", CategoryID: business})
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = storage.CreateTimeSlot(ctx, gtID, models.TimeSlotRequest{StartTime: "09:00", EndTime: "10:00", CategoryID: 9999})
		assert.ErrorIs(t, err, models.ErrInvalidCategory)

		gt, err := storage.GetGoodTiming(ctx, gtID)
		require.NoError(t, err)
		assert.Equal(t, "2025-09-01", gt.StartDate)
		require.Len(t, gt.TimeSlots, 1)
		assert.Equal(t, "Business", gt.TimeSlots[0].CategoryName)
		assert.Equal(t, gtID, gt.TimeSlots[0].GoodTimingID)

		list, err := storage.ListGoodTimings(ctx, models.GoodTimingFilter{Day: "monday"})
		require.NoError(t, err)
		assert.Len(t, list, 1)
		list, err = storage.ListGoodTimings(ctx, models.GoodTimingFilter{StartDate: "2025-09-02"})
		require.NoError(t, err)
		assert.Empty(t, list)

		overlapping, err := storage.ListGoodTimingsOverlapping(ctx, "2025-09-07", "2025-09-10")
		require.NoError(t, err)
		assert.Len(t, overlapping, 1)

		assert.ErrorIs(t, storage.DeleteCategory(ctx, business), models.ErrCategoryInUse)

		updated, err := storage.UpdateTimeSlot(ctx, gtID, slot.ID, models.UpdateTimeSlotRequest{EndTime: strPtr("11:00")})
		require.NoError(t, err)
		assert.Equal(t, "09:00:00", updated.StartTime)
		assert.Equal(t, "11:00:00", updated.EndTime)
		assert.Equal(t, "meeting", *updated.Description)

		_, err = storage.UpdateTimeSlot(ctx, gtID+1, slot.ID, models.UpdateTimeSlotRequest{EndTime: strPtr("11:00")})
		assert.ErrorIs(t, err, models.ErrNotFound)

		require.NoError(t, storage.DeleteGoodTiming(ctx, gtID))
		assert.Equal(t, 0, verify.CountRows(t, "time_slot_child"))
		_, err = storage.GetGoodTiming(ctx, gtID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("световой день и ротация", func(t *testing.T) {
		for day := 1; day <= 8; day++ {
			factory.CreateDaylight(t, fmt.Sprintf("2025-09-%02d", day))
		}
		removed, err := storage.TrimDaylight(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
		assert.Equal(t, 7, verify.CountRows(t, "daylight"))

		_, err = storage.GetDaylight(ctx, "2025-09-01")
		assert.ErrorIs(t, err, models.ErrNotFound)

		latest, err := storage.ListLatestDaylight(ctx, 7)
		require.NoError(t, err)
		require.Len(t, latest, 7)
		assert.Equal(t, "2025-09-08", latest[0].Date)
		assert.Equal(t, "Asia/Kolkata", latest[0].Timezone)

		rng, err := storage.ListDaylightRange(ctx, "2025-09-03", "2025-09-05")
		require.NoError(t, err)
		require.Len(t, rng, 3)
		assert.Equal(t, "2025-09-03", rng[0].Date)

		lat := 19.07
		d, err := storage.UpsertDaylight(ctx, "2025-09-05", models.DaylightRequest{
			SunriseTime: "06:10:00", SunsetTime: "18:40:00", Timezone: "UTC", Latitude: &lat,
		}, &adminID)
		require.NoError(t, err)
		assert.Equal(t, "06:10:00", d.SunriseTime)
		assert.Equal(t, "UTC", d.Timezone)
		assert.InDelta(t, 19.07, *d.Latitude, 0.0001)
		assert.Equal(t, adminID, *d.UpdatedBy)

		n, err := storage.UpsertDaylightBulk(ctx, []models.BulkDaylightItem{
			{Date: "2025-09-09", DaylightRequest: models.DaylightRequest{SunriseTime: "06:00:00", SunsetTime: "18:00:00"}},
			{Date: "2025-09-10", DaylightRequest: models.DaylightRequest{SunriseTime: "06:00:00", SunsetTime: "18:00:00"}},
		}, &adminID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		_, err = storage.UpsertDaylightBulk(ctx, []models.BulkDaylightItem{
			{Date: "2025-09-11", DaylightRequest: models.DaylightRequest{SunriseTime: "06:00:00", SunsetTime: "18:00:00"}},
			{Date: "2025-09-12", DaylightRequest: models.DaylightRequest{SunriseTime: "bad", SunsetTime: "18:00:00"}},
		}, &adminID)
		assert.Error(t, err)
		_, err = storage.GetDaylight(ctx, "2025-09-11")
		assert.ErrorIs(t, err, models.ErrNotFound)

		require.NoError(t, storage.DeleteDaylight(ctx, "2025-09-10"))
		assert.ErrorIs(t, storage.DeleteDaylight(ctx, "2025-09-10"), models.ErrNotFound)

		deleted, err := storage.DeleteAllDaylight(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(8), deleted)
	})

	t.Run("события календаря", func(t *testing.T) {
		health := factory.CategoryID(t, "Health")
		ev, err := storage.CreateCalendarEvent(ctx, models.CalendarEventRequest{
			Title: "Retreat", StartDate: "2025-09-10", EndDate: "2025-09-12", CategoryID: &health,
		}, adminID)
		require.NoError(t, err)
		assert.Equal(t, "blue", ev.Color)
		assert.False(t, ev.IsAllDay)
		assert.Nil(t, ev.StartTime)
		assert.Equal(t, "Health", *ev.CategoryName)

		_, err = storage.CreateCalendarEvent(ctx, models.CalendarEventRequest{
			Title: "Bad", StartDate: "2025-09-10", EndDate: "2025-09-10", CategoryID: func() *int { v := 9999; return &v }(),
		}, adminID)
		assert.ErrorIs(t, err, models.ErrInvalidCategory)

		overlapping, err := storage.ListCalendarEventsOverlapping(ctx, "2025-09-12", "2025-09-20")
		require.NoError(t, err)
		assert.Len(t, overlapping, 1)

		list, err := storage.ListCalendarEvents(ctx, models.CalendarEventFilter{CategoryID: &health})
		require.NoError(t, err)
		assert.Len(t, list, 1)

		allDay := true
		updated, err := storage.UpdateCalendarEvent(ctx, ev.ID, models.CalendarEventRequest{
			Title: "Retreat 2", StartDate: "2025-09-10", EndDate: "2025-09-10", StartTime: strPtr("07:00"), IsAllDay: &allDay,
		})
		require.NoError(t, err)
		assert.Equal(t, "Retreat 2", updated.Title)
		assert.Equal(t, "07:00:00", *updated.StartTime)
		assert.True(t, updated.IsAllDay)
		assert.Equal(t, health, *updated.CategoryID)

		require.NoError(t, storage.DeleteCalendarEvent(ctx, ev.ID))
		assert.ErrorIs(t, storage.DeleteCalendarEvent(ctx, ev.ID), models.ErrNotFound)
	})

	t.Run("подписчики", func(t *testing.T) {
		sub, err := storage.Subscribe(ctx, "Reader@Example.com")
		require.NoError(t, err)
		assert.Equal(t, "reader@example.com", sub.Email)
		assert.True(t, sub.IsActive)

		_, err = storage.Subscribe(ctx, "reader@example.com")
		assert.ErrorIs(t, err, models.ErrConflict)

		require.NoError(t, storage.Unsubscribe(ctx, "reader@example.com"))
		assert.ErrorIs(t, storage.Unsubscribe(ctx, "nobody@example.com"), models.ErrNotFound)

		active, err := storage.ListSubscribers(ctx, true)
		require.NoError(t, err)
		assert.Empty(t, active)

		all, err := storage.ListSubscribers(ctx, false)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.False(t, all[0].IsActive)
		assert.NotNil(t, all[0].UnsubscribedAt)
	})
}
