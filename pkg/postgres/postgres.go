package postgres

import (
	"context"
	"fmt"

	"clv-forecast/pkg/config"
	"clv-forecast/pkg/database"
	"clv-forecast/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NewPool ouvre un pool pgx et vérifie la connexion.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("configuration base invalide: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("création du pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping base: %w", err)
	}

	logger.Info("connexion Postgres établie",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.DBName),
	)

	return pool, nil
}

// LoadTransactions lit toutes les transactions de table (Postgres), triées par date.
func LoadTransactions(ctx context.Context, pool *pgxpool.Pool, table string, cols database.Columns, logger *zap.Logger) ([]models.TransactionRecord, error) {
	q, err := database.TransactionsQuery(table, cols, database.Postgres)
	if err != nil {
		return nil, &models.DataError{Msg: "requête", Err: err}
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.TransactionRecord
	for rows.Next() {
		var (
			rec    models.TransactionRecord
			amount string
		)
		if err := rows.Scan(&rec.CustomerID, &rec.Date, &amount); err != nil {
			return nil, &models.DataError{Line: len(out) + 1, Msg: "scan", Err: err}
		}
		rec.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, &models.DataError{Line: len(out) + 1, Msg: "montant", Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.Debug("transactions lues", zap.String("table", table), zap.Int("rows", len(out)))
	if len(out) == 0 {
		return nil, &models.DataError{Msg: "aucune transaction dans " + table}
	}
	return out, nil
}
