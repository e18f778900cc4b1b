package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/olliwhaller-hue/newborbbq-bot/internal/config"
)

type traceRecorder struct {
	errs []error
}

func (r *traceRecorder) LogMode(gormlogger.LogLevel) gormlogger.Interface { return r }
func (r *traceRecorder) Info(context.Context, string, ...interface{})     {}
func (r *traceRecorder) Warn(context.Context, string, ...interface{})     {}
func (r *traceRecorder) Error(context.Context, string, ...interface{})    {}
func (r *traceRecorder) Trace(_ context.Context, _ time.Time, _ func() (string, int64), err error) {
	r.errs = append(r.errs, err)
}

func TestConflictQuietLogger_Trace(t *testing.T) {
	rec := &traceRecorder{}
	l := newLogger(rec).LogMode(gormlogger.Warn)
	sql := func() (string, int64) { return "INSERT", 0 }
	boom := errors.New("disk full")

	l.Trace(context.Background(), time.Now(), sql, fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey))
	l.Trace(context.Background(), time.Now(), sql, boom)

	if len(rec.errs) != 2 {
		t.Fatalf("trace calls = %d, want 2", len(rec.errs))
	}
	if rec.errs[0] != nil {
		t.Fatalf("duplicate key reached the log: %v", rec.errs[0])
	}
	if !errors.Is(rec.errs[1], boom) {
		t.Fatalf("storage error lost: %v", rec.errs[1])
	}
}

type slotRow struct {
	Day  string `gorm:"primaryKey"`
	Slot string `gorm:"primaryKey"`
}

func TestNewGormDB_DuplicateKeyNotLogged(t *testing.T) {
	gormDB, err := NewGormDB(&config.DBConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "bbq.db"),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := gormDB.AutoMigrate(&slotRow{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	rec := &traceRecorder{}
	sess := gormDB.Session(&gorm.Session{Logger: newLogger(rec)})
	if err := sess.Create(&slotRow{Day: "2026-11-10", Slot: "10-12"}).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err = sess.Create(&slotRow{Day: "2026-11-10", Slot: "10-12"}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("second insert err = %v, want ErrDuplicatedKey", err)
	}
	for i, e := range rec.errs {
		if e != nil {
			t.Fatalf("trace %d logged %v", i, e)
		}
	}
	if _, ok := gormDB.Config.Logger.(conflictQuietLogger); !ok {
		t.Fatalf("NewGormDB logger = %T, want conflictQuietLogger", gormDB.Config.Logger)
	}
}
