package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"BloodConnect/internal/model"
	"BloodConnect/internal/notify"
	pkgerrors "BloodConnect/pkg/errors"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var donorColumns = []string{
	"id", "public_id", "name", "phone", "email", "whatsapp_number",
	"blood_group", "district", "is_available", "donation_status", "created_at", "updated_at",
}

func TestDonorRepository_FindAvailable(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "donors" WHERE is_available = \$1 AND blood_group = \$2 AND district = \$3`).
		WithArgs(true, "B+", "Hyderabad").
		WillReturnRows(sqlmock.NewRows(donorColumns).
			AddRow(1, 101, "Ravi", "9876500001", "ravi@example.com", "", "B+", "Hyderabad", true, "Available", now, now).
			AddRow(2, 102, "Meena", "9876500002", "", "9876500022", "B+", "Hyderabad", true, "Available", now, now))

	repo := NewDonorRepository(db)
	got, err := repo.FindAvailable(context.Background(), notify.DirectoryQuery{BloodGroup: "B+", District: "Hyderabad"})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "101", got[0].ID)
	assert.Equal(t, model.BloodGroupBPos, got[0].BloodGroup)
	assert.Equal(t, "9876500022", got[1].WhatsAppNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonorRepository_FindAvailable_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "donors"`).WillReturnError(assert.AnError)

	_, err := NewDonorRepository(db).FindAvailable(context.Background(), notify.DirectoryQuery{})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestDonorRepository_FindByPublicID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "donors" WHERE public_id = \$1`).
		WillReturnRows(sqlmock.NewRows(donorColumns))

	_, err := NewDonorRepository(db).FindByPublicID(context.Background(), 999)
	assert.ErrorIs(t, err, pkgerrors.DonorNotFound)
}

func TestDonorRepository_UpdateAvailability(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE "donors" SET .*"is_available"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "donors" SET .*"is_available"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewDonorRepository(db)
	assert.NoError(t, repo.UpdateAvailability(context.Background(), 101, false))
	assert.ErrorIs(t, repo.UpdateAvailability(context.Background(), 404, true), pkgerrors.DonorNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonorRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE "donors" SET "deleted_at"=\$1 WHERE public_id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, NewDonorRepository(db).Delete(context.Background(), 101))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonorRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`INSERT INTO "donors"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	d := &model.Donor{
		Name:           "Ravi",
		Phone:          "+919876500001",
		BloodGroup:     model.BloodGroupBPos,
		District:       "Hyderabad",
		DonationStatus: model.DonationStatusAvailable,
		PublicID:       101,
		IsAvailable:    true,
	}
	require.NoError(t, NewDonorRepository(db).Create(context.Background(), d))
	assert.Equal(t, int64(7), d.ID)
}

func TestEmergencyRepository_ListByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "emergency_requests" WHERE status = \$1 .*ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("open", 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "public_id", "blood_group", "district", "urgency", "status", "created_at"}).
			AddRow(1, 11, "A+", "Medak", "high", "open", now))

	list, err := NewEmergencyRepository(db).ListByStatus(context.Background(), model.RequestStatusOpen, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(11), list[0].PublicID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmergencyRepository_UpdateStatus_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE "emergency_requests" SET "status"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewEmergencyRepository(db).UpdateStatus(context.Background(), 5, model.RequestStatusClosed)
	assert.ErrorIs(t, err, pkgerrors.EmergencyNotFound)
}
