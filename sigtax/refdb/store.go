// Package refdb stores the reference taxonomy and genome annotations in a SQL database and
// loads them for classification.
package refdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/sigtax/sigtax/taxonomy"
)

var (
	ErrMissingGenomes = errors.New("refdb: genomes not found")
	ErrUnknownTaxon   = errors.New("refdb: genome references unknown taxon")
)

// Store reads and writes reference data through a database/sql handle. Any driver
// speaking the SQLite dialect works ("sqlite", "libsql").
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open connects to dsn with the named driver and checks the connection.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	return db, nil
}

// New wraps db and creates the schema if it does not exist yet.
func New(ctx context.Context, db *sql.DB, logger zerolog.Logger) (*Store, error) {
	s := &Store{db: db, log: logger}
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates missing tables and indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// AddTaxa inserts taxa in one transaction. Parents may appear after their children.
func (s *Store) AddTaxa(ctx context.Context, records []taxonomy.Record) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO taxa
			(id, key, name, rank, parent_id, ncbi_id, distance_threshold, report)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, r.ID, r.Key, r.Name, nullString(r.Rank),
				nullable(r.ParentID), nullable(r.NCBIID), nullable(r.DistanceThreshold), r.Report); err != nil {
				return fmt.Errorf("failed to insert taxon %d (%s): %w", r.ID, r.Key, err)
			}
		}
		s.log.Debug().Int("count", len(records)).Msg("inserted taxa")
		return nil
	})
}

// GenomeRecord is the stored form of a reference genome.
type GenomeRecord struct {
	ID          int64
	Key         string
	Description string
	TaxonID     *int64
}

// AddGenomes inserts genomes in one transaction.
func (s *Store) AddGenomes(ctx context.Context, records []GenomeRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO genomes (id, key, description, taxon_id) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, r.ID, r.Key, nullString(r.Description), nullable(r.TaxonID)); err != nil {
				return fmt.Errorf("failed to insert genome %d (%s): %w", r.ID, r.Key, err)
			}
		}
		s.log.Debug().Int("count", len(records)).Msg("inserted genomes")
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadTaxonomy reads every taxon and builds the tree.
func (s *Store) LoadTaxonomy(ctx context.Context) (*taxonomy.Tree, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, key, name, rank, parent_id, ncbi_id, distance_threshold, report
		FROM taxa ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query taxa: %w", err)
	}
	defer rows.Close()

	b := taxonomy.NewBuilder()
	for rows.Next() {
		var (
			r         taxonomy.Record
			rank      sql.NullString
			parent    sql.NullInt64
			ncbi      sql.NullInt64
			threshold sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Key, &r.Name, &rank, &parent, &ncbi, &threshold, &r.Report); err != nil {
			return nil, fmt.Errorf("failed to scan taxon: %w", err)
		}
		r.Rank = rank.String
		r.ParentID = ptrOf(parent.Int64, parent.Valid)
		r.NCBIID = ptrOf(ncbi.Int64, ncbi.Valid)
		r.DistanceThreshold = ptrOf(threshold.Float64, threshold.Valid)
		b.Add(r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read taxa: %w", err)
	}

	tree, err := b.Build()
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int("taxa", tree.Len()).Msg("loaded taxonomy")
	return tree, nil
}

// LoadGenomes returns the genomes with the given keys, in the same order, linked to taxa
// of tree. A nil keys slice loads every genome ordered by id. Keys missing from the
// database are reported together in one ErrMissingGenomes error.
func (s *Store) LoadGenomes(ctx context.Context, tree *taxonomy.Tree, keys []string) ([]*AnnotatedGenome, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, key, description, taxon_id FROM genomes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query genomes: %w", err)
	}
	defer rows.Close()

	var all []*AnnotatedGenome
	for rows.Next() {
		var (
			g     AnnotatedGenome
			desc  sql.NullString
			taxon sql.NullInt64
		)
		if err := rows.Scan(&g.ID, &g.Key, &desc, &taxon); err != nil {
			return nil, fmt.Errorf("failed to scan genome: %w", err)
		}
		g.desc = desc.String
		if taxon.Valid {
			t, ok := tree.ByID(taxon.Int64)
			if !ok {
				return nil, fmt.Errorf("%w: genome %s has taxon %d", ErrUnknownTaxon, g.Key, taxon.Int64)
			}
			g.taxon = t
		}
		all = append(all, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read genomes: %w", err)
	}
	if keys == nil {
		return all, nil
	}

	byKey := make(map[string]*AnnotatedGenome, len(all))
	for _, g := range all {
		byKey[g.Key] = g
	}
	out := make([]*AnnotatedGenome, len(keys))
	var missing []string
	for i, k := range keys {
		g, ok := byKey[k]
		if !ok {
			missing = append(missing, k)
			continue
		}
		out[i] = g
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingGenomes, strings.Join(missing, ", "))
	}
	return out, nil
}

// Counts returns the number of stored taxa and genomes.
func (s *Store) Counts(ctx context.Context) (taxa, genomes int, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM taxa`).Scan(&taxa); err != nil {
		return 0, 0, err
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM genomes`).Scan(&genomes); err != nil {
		return 0, 0, err
	}
	return taxa, genomes, nil
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func ptrOf[T any](v T, ok bool) *T {
	if !ok {
		return nil
	}
	return &v
}
