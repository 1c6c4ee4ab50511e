package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"clv-forecast/pkg/models"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Open DSN mariadb:// ou mysql:// → format MySQL driver
func Open(dsn string) (*sql.DB, string, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, mysqlDSN, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("dsn incomplet (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// LoadTransactions lit toutes les transactions de table (MySQL/MariaDB).
func LoadTransactions(ctx context.Context, db *sql.DB, table string, cols Columns, logger *zap.Logger) ([]models.TransactionRecord, error) {
	q, err := TransactionsQuery(table, cols, MySQL)
	if err != nil {
		return nil, &models.DataError{Msg: "requête", Err: err}
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.TransactionRecord
	for rows.Next() {
		var (
			customerID string
			date       time.Time
			amount     decimal.NullDecimal
		)
		if err := rows.Scan(&customerID, &date, &amount); err != nil {
			return nil, &models.DataError{Line: len(out) + 1, Msg: "scan", Err: err}
		}
		rec, err := toRecord(len(out)+1, customerID, date, amount)
		if err != nil {
			return nil, err
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

// toRecord valide une ligne lue. Un montant NULL est une erreur, jamais une ligne ignorée.
func toRecord(line int, customerID string, date time.Time, amount decimal.NullDecimal) (models.TransactionRecord, error) {
	if !amount.Valid {
		return models.TransactionRecord{}, &models.DataError{Line: line, Msg: "montant NULL pour " + customerID}
	}
	return models.TransactionRecord{CustomerID: customerID, Date: date, Amount: amount.Decimal}, nil
}
