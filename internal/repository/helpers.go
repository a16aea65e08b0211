package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// psql builds Postgres flavoured statements for dynamic filters.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// namedReturning runs a named INSERT/UPDATE ... RETURNING statement and scans
// the first row into dest.
func namedReturning(ctx context.Context, ext sqlx.ExtContext, query string, arg interface{}, dest ...interface{}) error {
	rows, err := sqlx.NamedQueryContext(ctx, ext, query, arg)
	if err != nil {
		return err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return fmt.Errorf("statement returned no rows")
	}
	if err := rows.Scan(dest...); err != nil {
		return err
	}
	return rows.Err()
}

func pageBounds(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
