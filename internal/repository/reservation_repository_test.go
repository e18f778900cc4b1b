package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/olliwhaller-hue/newborbbq-bot/internal/config"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/db"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := db.NewGormDB(&config.DBConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "bbq.db"),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gormDB
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func reservation(d time.Time, slot string, userID int64) *model.Reservation {
	return &model.Reservation{
		Date:        ToDate(d),
		Slot:        slot,
		UserID:      userID,
		DisplayName: "@user",
		House:       "Миля 3",
		Entrance:    "2",
		Flat:        "60",
	}
}

func TestGormReservationRepository_BookAndListForDate(t *testing.T) {
	repo := NewGormReservationRepository(newTestDB(t))
	ctx := context.Background()
	d := day(2026, 11, 3)

	if err := repo.Book(ctx, reservation(d, "10-12", 1)); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if err := repo.Book(ctx, reservation(d, "14-16", 2)); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if err := repo.Book(ctx, reservation(d.AddDate(0, 0, 1), "10-12", 3)); err != nil {
		t.Fatalf("Book next day: %v", err)
	}

	taken, err := repo.ListForDate(ctx, d)
	if err != nil {
		t.Fatalf("ListForDate: %v", err)
	}
	if len(taken) != 2 {
		t.Fatalf("taken = %v, want 2 slots", taken)
	}
	if taken["10-12"] != "@user" {
		t.Fatalf("taken[10-12] = %q", taken["10-12"])
	}
	if _, ok := taken["12-14"]; ok {
		t.Fatalf("12-14 must be free")
	}
}

func TestGormReservationRepository_BookConflict(t *testing.T) {
	repo := NewGormReservationRepository(newTestDB(t))
	ctx := context.Background()
	d := day(2026, 11, 3)

	if err := repo.Book(ctx, reservation(d, "10-12", 1)); err != nil {
		t.Fatalf("first Book: %v", err)
	}
	err := repo.Book(ctx, reservation(d, "10-12", 2))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second Book err = %v, want ErrConflict", err)
	}

	mine, err := repo.ListForUser(ctx, 2)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(mine) != 0 {
		t.Fatalf("conflicting Book left a row: %+v", mine)
	}
}

func TestGormReservationRepository_ConcurrentBookSingleWinner(t *testing.T) {
	repo := NewGormReservationRepository(newTestDB(t))
	ctx := context.Background()
	d := day(2026, 11, 7)

	const n = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
		failures  []error
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			<-start
			err := repo.Book(ctx, reservation(d, "18-20", userID))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				failures = append(failures, err)
			}
		}(int64(i + 1))
	}
	close(start)
	wg.Wait()

	if len(failures) > 0 {
		t.Fatalf("unexpected storage errors: %v", failures)
	}
	if wins != 1 || conflicts != n-1 {
		t.Fatalf("wins=%d conflicts=%d, want 1 and %d", wins, conflicts, n-1)
	}

	taken, err := repo.ListForDate(ctx, d)
	if err != nil {
		t.Fatalf("ListForDate: %v", err)
	}
	if len(taken) != 1 {
		t.Fatalf("expected exactly one reservation, got %v", taken)
	}
}

func TestGormReservationRepository_CancelIdempotent(t *testing.T) {
	repo := NewGormReservationRepository(newTestDB(t))
	ctx := context.Background()
	d := day(2026, 11, 3)

	if err := repo.Book(ctx, reservation(d, "12-14", 5)); err != nil {
		t.Fatalf("Book: %v", err)
	}

	removed, err := repo.Cancel(ctx, d, "12-14", 5)
	if err != nil || !removed {
		t.Fatalf("first Cancel = (%v, %v), want (true, nil)", removed, err)
	}
	removed, err = repo.Cancel(ctx, d, "12-14", 5)
	if err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	if removed {
		t.Fatalf("second Cancel reported a removal")
	}

	taken, err := repo.ListForDate(ctx, d)
	if err != nil {
		t.Fatalf("ListForDate: %v", err)
	}
	if len(taken) != 0 {
		t.Fatalf("expected empty date, got %v", taken)
	}
}

func TestGormReservationRepository_CancelForeignReservation(t *testing.T) {
	repo := NewGormReservationRepository(newTestDB(t))
	ctx := context.Background()
	d := day(2026, 11, 3)

	if err := repo.Book(ctx, reservation(d, "16-18", 10)); err != nil {
		t.Fatalf("Book: %v", err)
	}

	removed, err := repo.Cancel(ctx, d, "16-18", 11)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if removed {
		t.Fatalf("foreign Cancel must not remove the reservation")
	}

	owned, err := repo.ListForUser(ctx, 10)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(owned) != 1 || owned[0].Slot != "16-18" {
		t.Fatalf("owner reservation changed: %+v", owned)
	}
}

func TestGormReservationRepository_ListForUserOrdered(t *testing.T) {
	repo := NewGormReservationRepository(newTestDB(t))
	ctx := context.Background()

	seed := []struct {
		d    time.Time
		slot string
	}{
		{day(2026, 12, 1), "18-20"},
		{day(2026, 11, 30), "20-22"},
		{day(2026, 12, 1), "10-12"},
	}
	for _, s := range seed {
		if err := repo.Book(ctx, reservation(s.d, s.slot, 9)); err != nil {
			t.Fatalf("Book %v %s: %v", s.d, s.slot, err)
		}
	}

	got, err := repo.ListForUser(ctx, 9)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	want := []string{"2026-11-30 20-22", "2026-12-01 10-12", "2026-12-01 18-20"}
	if len(got) != len(want) {
		t.Fatalf("got %d reservations, want %d", len(got), len(want))
	}
	for i, r := range got {
		if key := DayKey(r.Day()) + " " + r.Slot; key != want[i] {
			t.Fatalf("reservation %d = %s, want %s", i, key, want[i])
		}
		if r.CreatedAt.IsZero() {
			t.Fatalf("reservation %d has zero created_at", i)
		}
	}
}

func TestGormReservationRepository_CountByDateRange(t *testing.T) {
	repo := NewGormReservationRepository(newTestDB(t))
	ctx := context.Background()

	for i, slot := range model.Slots[:3] {
		if err := repo.Book(ctx, reservation(day(2026, 11, 10), slot, int64(i+1))); err != nil {
			t.Fatalf("Book: %v", err)
		}
	}
	if err := repo.Book(ctx, reservation(day(2026, 11, 30), "10-12", 1)); err != nil {
		t.Fatalf("Book: %v", err)
	}
	// за пределами окна
	if err := repo.Book(ctx, reservation(day(2026, 12, 1), "10-12", 1)); err != nil {
		t.Fatalf("Book: %v", err)
	}

	counts, err := repo.CountByDateRange(ctx, day(2026, 11, 1), day(2026, 12, 1))
	if err != nil {
		t.Fatalf("CountByDateRange: %v", err)
	}
	if counts["2026-11-10"] != 3 || counts["2026-11-30"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if _, ok := counts["2026-12-01"]; ok {
		t.Fatalf("range end must be exclusive: %v", counts)
	}

	all, err := repo.ListRange(ctx, day(2026, 11, 1), day(2026, 12, 2))
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("ListRange returned %d rows, want 5", len(all))
	}
}
