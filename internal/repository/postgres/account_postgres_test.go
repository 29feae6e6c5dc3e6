package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestAccountPostgres_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAccountPostgres(db)
	ctx := context.Background()

	t.Run("returns a row whether inserted or pre-existing", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "email", "created_at"}).
			AddRow("acc-1", "alice@example.com", time.Now())

		mock.ExpectQuery("INSERT INTO accounts").
			WithArgs("alice@example.com").
			WillReturnRows(rows)

		acc, err := repo.Upsert(ctx, "alice@example.com")

		assert.NoError(t, err)
		assert.Equal(t, "acc-1", acc.ID)
		assert.Equal(t, "alice@example.com", acc.Email)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO accounts").
			WithArgs("alice@example.com").
			WillReturnError(errors.New("db fail"))

		acc, err := repo.Upsert(ctx, "alice@example.com")

		assert.Error(t, err)
		assert.Nil(t, acc)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
