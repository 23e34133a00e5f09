package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTx(t *testing.T) {
	t.Run("commits when fn succeeds", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE usuario`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			_, err := tx.ExecContext(ctx, `UPDATE usuario SET nombre = 'x'`)
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and returns fn error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		sentinel := errors.New("stop")
		err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return sentinel })
		assert.Same(t, sentinel, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and rethrows panics", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.PanicsWithValue(t, "boom", func() {
			_ = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { panic("boom") })
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin().WillReturnError(errors.New("no connection"))

		called := false
		err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.False(t, called)
	})
}
