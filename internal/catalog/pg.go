package catalog

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool открывает пул соединений с базой каталога.
// DSN берётся из dsn, затем из CATALOG_DB_URL.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		dsn = os.Getenv("CATALOG_DB_URL")
	}
	if dsn == "" {
		return nil, fmt.Errorf("catalog dsn is not configured")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// PGSource читает соответствие видов из таблицы representatives.
//
//	CREATE TABLE representatives (
//	    db_name    text NOT NULL,
//	    species_id text NOT NULL,
//	    genome_id  text NOT NULL,
//	    PRIMARY KEY (db_name, species_id)
//	);
type PGSource struct {
	pool   *pgxpool.Pool
	dbName string
}

// NewPGSource создаёт PGSource для базы dbName (uhgg, gtdb, ...).
func NewPGSource(pool *pgxpool.Pool, dbName string) *PGSource {
	return &PGSource{pool: pool, dbName: dbName}
}

// Representatives возвращает species_id → genome_id для базы.
func (s *PGSource) Representatives(ctx context.Context) (map[string]string, error) {
	query := `
		SELECT species_id, genome_id
		FROM representatives
		WHERE db_name = $1
	`
	rows, err := s.pool.Query(ctx, query, s.dbName)
	if err != nil {
		return nil, fmt.Errorf("query representatives: %w", err)
	}
	defer rows.Close()

	reps := make(map[string]string)
	for rows.Next() {
		var speciesID, genomeID string
		if err := rows.Scan(&speciesID, &genomeID); err != nil {
			return nil, fmt.Errorf("scan representative: %w", err)
		}
		reps[speciesID] = genomeID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate representatives: %w", err)
	}
	return reps, nil
}
