package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// conflictQuietLogger не пишет в лог gorm.ErrDuplicatedKey: занятый слот
// это обычный исход бронирования, его учитывает сервис.
type conflictQuietLogger struct {
	gormlogger.Interface
}

func newLogger(inner gormlogger.Interface) gormlogger.Interface {
	return conflictQuietLogger{Interface: inner}
}

func (l conflictQuietLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return conflictQuietLogger{Interface: l.Interface.LogMode(level)}
}

func (l conflictQuietLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = nil
	}
	l.Interface.Trace(ctx, begin, fc, err)
}
