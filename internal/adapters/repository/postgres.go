package repository

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jmoiron/sqlx"

	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/infrastructure/database"
	"github.com/gameloans/core/internal/ports"
)

const (
	dialectPostgres = "postgres"
	colPosition     = "position"
)

var (
	gameColumns    = []interface{}{"id", "title", "category", "year", "console", "available", "borrowed_by", "borrowed_date"}
	loanColumns    = []interface{}{"id", "game_id", "game_title", "borrower_name", "borrow_date", "return_date"}
	requestColumns = []interface{}{"id", "game_id", "game_title", "user_id", "user_name", "request_date", "status"}
	userColumns    = []interface{}{"id", "name", "email", "role", "password_hash"}
)

// PostgresStore keeps each collection in its own table. A save replaces the
// table contents inside one transaction; the position column keeps stored order.
type PostgresStore struct {
	db      *database.DB
	builder goqu.DialectWrapper
}

// NewPostgresStore creates a collection store over an open database. The
// schema comes from the migrations directory.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db, builder: goqu.Dialect(dialectPostgres)}
}

func (s *PostgresStore) LoadGames(ctx context.Context) ([]entities.Game, error) {
	games := []entities.Game{}
	if err := s.selectAll(ctx, &games, ports.CollectionGames, gameColumns); err != nil {
		return nil, err
	}
	return games, nil
}

func (s *PostgresStore) SaveGames(ctx context.Context, games []entities.Game) error {
	rows := make([]interface{}, len(games))
	for i, g := range games {
		rows[i] = goqu.Record{
			"id": g.ID, "title": g.Title, "category": g.Category, "year": g.Year, "console": g.Console,
			"available": g.Available, "borrowed_by": nullString(g.BorrowedBy), "borrowed_date": nullDate(g.BorrowedDate),
			colPosition: i,
		}
	}
	return s.replaceAll(ctx, ports.CollectionGames, rows)
}

func (s *PostgresStore) LoadLoans(ctx context.Context) ([]entities.Loan, error) {
	loans := []entities.Loan{}
	if err := s.selectAll(ctx, &loans, ports.CollectionLoans, loanColumns); err != nil {
		return nil, err
	}
	return loans, nil
}

func (s *PostgresStore) SaveLoans(ctx context.Context, loans []entities.Loan) error {
	rows := make([]interface{}, len(loans))
	for i, l := range loans {
		rows[i] = goqu.Record{
			"id": l.ID, "game_id": l.GameID, "game_title": l.GameTitle, "borrower_name": l.BorrowerName,
			"borrow_date": l.BorrowDate.String(), "return_date": nullDate(l.ReturnDate),
			colPosition: i,
		}
	}
	return s.replaceAll(ctx, ports.CollectionLoans, rows)
}

func (s *PostgresStore) LoadLoanRequests(ctx context.Context) ([]entities.LoanRequest, error) {
	requests := []entities.LoanRequest{}
	if err := s.selectAll(ctx, &requests, ports.CollectionLoanRequests, requestColumns); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *PostgresStore) SaveLoanRequests(ctx context.Context, requests []entities.LoanRequest) error {
	rows := make([]interface{}, len(requests))
	for i, r := range requests {
		rows[i] = goqu.Record{
			"id": r.ID, "game_id": r.GameID, "game_title": r.GameTitle, "user_id": r.UserID, "user_name": r.UserName,
			"request_date": r.RequestDate.String(), "status": string(r.Status),
			colPosition: i,
		}
	}
	return s.replaceAll(ctx, ports.CollectionLoanRequests, rows)
}

func (s *PostgresStore) LoadUsers(ctx context.Context) ([]entities.User, error) {
	users := []entities.User{}
	if err := s.selectAll(ctx, &users, ports.CollectionUsers, userColumns); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *PostgresStore) SaveUsers(ctx context.Context, users []entities.User) error {
	rows := make([]interface{}, len(users))
	for i, u := range users {
		rows[i] = goqu.Record{
			"id": u.ID, "name": u.Name, "email": u.Email, "role": string(u.Role), "password_hash": u.PasswordHash,
			colPosition: i,
		}
	}
	return s.replaceAll(ctx, ports.CollectionUsers, rows)
}

// HealthCheck pings the database
func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) selectAll(ctx context.Context, dest interface{}, collection ports.Collection, columns []interface{}) error {
	query, args, err := s.selectQuery(collection, columns)
	if err != nil {
		return err
	}
	if err := s.db.DB.SelectContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("select %s: %w", collection, err)
	}
	return nil
}

func (s *PostgresStore) replaceAll(ctx context.Context, collection ports.Collection, rows []interface{}) error {
	deleteQuery, deleteArgs, err := s.deleteQuery(collection)
	if err != nil {
		return err
	}
	insertQuery, insertArgs, err := s.insertQuery(collection, rows)
	if err != nil {
		return err
	}

	return s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
			return fmt.Errorf("delete %s: %w", collection, err)
		}
		if insertQuery == "" {
			return nil
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("insert %s: %w", collection, err)
		}
		return nil
	})
}

func (s *PostgresStore) selectQuery(collection ports.Collection, columns []interface{}) (string, []interface{}, error) {
	query, args, err := s.builder.
		From(string(collection)).
		Select(columns...).
		Order(goqu.I(colPosition).Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build select %s: %w", collection, err)
	}
	return query, args, nil
}

func (s *PostgresStore) deleteQuery(collection ports.Collection) (string, []interface{}, error) {
	query, args, err := s.builder.Delete(string(collection)).Prepared(true).ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build delete %s: %w", collection, err)
	}
	return query, args, nil
}

// insertQuery returns an empty query for an empty collection.
func (s *PostgresStore) insertQuery(collection ports.Collection, rows []interface{}) (string, []interface{}, error) {
	if len(rows) == 0 {
		return "", nil, nil
	}
	query, args, err := s.builder.Insert(string(collection)).Rows(rows...).Prepared(true).ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build insert %s: %w", collection, err)
	}
	return query, args, nil
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullDate(d *entities.Date) interface{} {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}
