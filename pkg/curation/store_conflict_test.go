package curation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockDB backs GORM with a sqlmock connection so the lost-update race
// inside SubmitDecision can be scripted deterministically.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

// expectConflictingDecision scripts a transaction where a concurrent
// decision changes the candidate's status between the read and the guarded
// update: the update matches zero rows and the transaction must roll back.
func expectConflictingDecision(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "curation_candidates"`).
		WillReturnRows(sqlmock.NewRows([]string{"protein_id", "curation_status"}).
			AddRow("P1", "pending"))
	mock.ExpectExec(`INSERT INTO "curation_decisions"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "curation_candidates"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
}

func TestSubmitDecisionConcurrentStatusChange(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)

	expectConflictingDecision(mock)

	_, err := store.SubmitDecision("P1", DecisionRequest{
		Curator:      "alice",
		DecisionType: DecisionApprove,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitDecisionHandlerConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)

	expectConflictingDecision(mock)

	r := chi.NewRouter()
	r.Post("/curation/{proteinID}/decision", SubmitDecisionHandler(store))

	body := strings.NewReader(`{"curator":"alice","decision_type":"approve"}`)
	req := httptest.NewRequest(http.MethodPost, "/curation/P1/decision", body)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
