package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/innkeeper-backend/pkg/db/dbtest"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
)

// errorRecorder keeps every error gorm traces.
type errorRecorder struct {
	gormlogger.Interface
	errs []error
}

func (l *errorRecorder) LogMode(gormlogger.LogLevel) gormlogger.Interface { return l }

func (l *errorRecorder) Trace(_ context.Context, _ time.Time, _ func() (string, int64), err error) {
	if err != nil {
		l.errs = append(l.errs, err)
	}
}

func TestFindAbsentKeyIsQuiet(t *testing.T) {
	db := dbtest.Open(t, &models.SystemSetting{})
	recorder := &errorRecorder{Interface: gormlogger.Discard}
	repo := NewRepository(db.Session(&gorm.Session{Logger: recorder}))
	ctx := context.Background()

	row, err := repo.Find(ctx, "cancellation_policy")
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.Empty(t, recorder.errs)

	require.NoError(t, repo.Upsert(ctx, &models.SystemSetting{Key: "deposit_rate", Value: "0.30"}))
	row, err = repo.Find(ctx, "deposit_rate")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "0.30", row.Value)
}
