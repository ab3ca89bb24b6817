package sqldb

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/guillermoBallester/sqlgate/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_RunPage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck // sqlmock db close error is inconsequential in tests.

	const query = "SELECT region, amount FROM settlements LIMIT 10, 10"
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WillReturnRows(sqlmock.NewRows([]string{"region", "amount"}).
			AddRow([]byte("440100"), []byte("12.50")).
			AddRow("440300", nil))
	mock.ExpectCommit()

	rows, err := NewExecutor(db, 5*time.Second).RunPage(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"region", "amount"}, rows[0].Columns)
	assert.Equal(t, domain.StringValue("440100"), rows[0].Get("region"))
	assert.Equal(t, "12.50", rows[0].Get("amount").String())
	assert.True(t, rows[1].Get("amount").IsNull())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_RunCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck // sqlmock db close error is inconsequential in tests.

	const query = "SELECT COUNT(*) FROM settlements"
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(25)))
	mock.ExpectCommit()

	n, err := NewExecutor(db, 5*time.Second).RunCount(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, int64(25), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_QueryErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck // sqlmock db close error is inconsequential in tests.

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").
		WillReturnError(&mysql.MySQLError{Number: 1146, Message: "Table 'db.missing' doesn't exist"})
	mock.ExpectRollback()

	_, err = NewExecutor(db, 5*time.Second).RunPage(context.Background(), "SELECT * FROM missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doesn't exist")
	assert.False(t, errors.Is(err, domain.ErrQueryTimeout))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_MySQLTimeoutClassified(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck // sqlmock db close error is inconsequential in tests.

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").
		WillReturnError(&mysql.MySQLError{Number: 3024, Message: "Query execution was interrupted, maximum statement execution time exceeded"})
	mock.ExpectRollback()

	_, err = NewExecutor(db, 5*time.Second).RunCount(context.Background(), "SELECT COUNT(*) FROM big")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQueryTimeout)

	var myErr *mysql.MySQLError
	assert.ErrorAs(t, err, &myErr, "driver error stays reachable")
}

func TestExecutor_BeginFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck // sqlmock db close error is inconsequential in tests.

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err = NewExecutor(db, 0).RunPage(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beginning transaction")
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, domain.DialectLimitOffset, DialectFor(DriverPgx))
	assert.Equal(t, domain.DialectOffsetComma, DialectFor(DriverMySQL))
	assert.Equal(t, domain.DialectOffsetComma, DialectFor(DriverSQLite))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn", PoolOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestExecutor_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "test.db"), PoolOptions{MaxOpenConns: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `
		CREATE TABLE visits (id INTEGER PRIMARY KEY, region TEXT NOT NULL, cost REAL);
		INSERT INTO visits (region, cost) VALUES ('440100', 1.5), ('440300', NULL), ('440100', 3.25);
	`)
	require.NoError(t, err)

	exec := NewExecutor(db, 5*time.Second)
	base := "SELECT id, region, cost FROM visits ORDER BY id"

	n, err := exec.RunCount(ctx, domain.BuildCountQuery(base))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	rows, err := exec.RunPage(ctx, domain.BuildPageQuery(base, domain.NewPageRequest(2, 2), DialectFor(DriverSQLite)))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.IntValue(3), rows[0].Get("id"))
	assert.Equal(t, domain.FloatValue(3.25), rows[0].Get("cost"))
}
