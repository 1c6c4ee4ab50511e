package database

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/squirrel"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Dialect sélectionne les placeholders et les conversions propres au SGBD.
type Dialect int

const (
	MySQL Dialect = iota
	Postgres
)

// Columns nomme les colonnes de la table de transactions.
type Columns struct {
	CustomerID string
	Date       string
	Amount     string
}

// DefaultColumns reprend le nommage du jeu CDNOW après renommage price → monetary_value.
var DefaultColumns = Columns{CustomerID: "customer_id", Date: "date", Amount: "monetary_value"}

// TransactionsQuery construit la requête (customer_id, date, amount) triée par date.
// Postgres renvoie id et montant en texte pour un scan sans perte.
func TransactionsQuery(table string, cols Columns, dialect Dialect) (squirrel.SelectBuilder, error) {
	for _, name := range []string{table, cols.CustomerID, cols.Date, cols.Amount} {
		if !identifierRe.MatchString(name) {
			return squirrel.SelectBuilder{}, fmt.Errorf("identifiant invalide %q", name)
		}
	}
	id, amount := cols.CustomerID, cols.Amount
	var placeholder squirrel.PlaceholderFormat = squirrel.Question
	if dialect == Postgres {
		id = cols.CustomerID + "::text"
		amount = cols.Amount + "::text"
		placeholder = squirrel.Dollar
	}
	return squirrel.Select(id, cols.Date, amount).
		From(table).
		Where(squirrel.NotEq{cols.CustomerID: nil}).
		Where(squirrel.NotEq{cols.Date: nil}).
		Where(squirrel.NotEq{cols.Amount: nil}).
		OrderBy(cols.Date).
		PlaceholderFormat(placeholder), nil
}
