package stats

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// DB is the part of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS search_terms (
		term             TEXT PRIMARY KEY,
		count            BIGINT NOT NULL DEFAULT 0,
		last_searched_at TIMESTAMPTZ NOT NULL
	)
`

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.Exec(ctx, schemaSQL)
		return err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.Ping(ctx)
	})
}

func (s *PostgresStore) Record(ctx context.Context, term string, at time.Time) error {
	term = NormalizeTerm(term)
	if term == "" {
		return nil
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.Exec(ctx, `
			INSERT INTO search_terms (term, count, last_searched_at)
			VALUES ($1, 1, $2)
			ON CONFLICT (term) DO UPDATE
			SET count = search_terms.count + 1,
			    last_searched_at = GREATEST(search_terms.last_searched_at, EXCLUDED.last_searched_at)
		`, term, at.UTC())
		return err
	})
}

func (s *PostgresStore) Counts(ctx context.Context) (map[string]int64, error) {
	out := map[string]int64{}

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.Query(ctx, `SELECT term, count FROM search_terms`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				term  string
				count int64
			)
			if err := rows.Scan(&term, &count); err != nil {
				return err
			}
			out[term] = count
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Top(ctx context.Context, limit int) ([]TermCount, error) {
	var out []TermCount

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var (
			rows pgx.Rows
			err  error
		)
		if limit > 0 {
			rows, err = s.db.Query(ctx, `
				SELECT term, count, last_searched_at
				FROM search_terms
				ORDER BY count DESC, term ASC
				LIMIT $1
			`, limit)
		} else {
			rows, err = s.db.Query(ctx, `
				SELECT term, count, last_searched_at
				FROM search_terms
				ORDER BY count DESC, term ASC
			`)
		}
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]TermCount, 0, 16)
		for rows.Next() {
			var tc TermCount
			if err := rows.Scan(&tc.Term, &tc.Count, &tc.LastSearched); err != nil {
				return err
			}
			out = append(out, tc)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
