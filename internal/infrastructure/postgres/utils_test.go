package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/invorya-transformaciones/internal/domain"
)

func TestMapWriteErr(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, mapWriteErr(dup), domain.ErrDuplicate)

	ser := &pgconn.PgError{Code: "40001"}
	assert.ErrorIs(t, mapWriteErr(ser), domain.ErrConcurrentModification)
	assert.True(t, domain.IsRetryable(mapWriteErr(&pgconn.PgError{Code: "40P01"})), "un deadlock se reintenta")

	other := errors.New("conexión cerrada")
	assert.Equal(t, other, mapWriteErr(other))
	assert.NoError(t, mapWriteErr(nil))
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "abc", nullIfEmpty("abc"))
	s := "x"
	assert.Equal(t, "x", derefString(&s))
	assert.Equal(t, "", derefString(nil))
}
