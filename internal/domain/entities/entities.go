package entities

import (
	"strings"
)

// Enums and types
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// RequestStatus is the lifecycle state of a LoanRequest.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// IsTerminal reports whether no further transition is allowed.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// RequestAction is an administrator decision on a pending request.
type RequestAction string

const (
	RequestActionApprove RequestAction = "approve"
	RequestActionReject  RequestAction = "reject"
)

// ParseRequestAction accepts "approve" or "reject" in any case.
func ParseRequestAction(raw string) (RequestAction, error) {
	switch RequestAction(strings.ToLower(strings.TrimSpace(raw))) {
	case RequestActionApprove:
		return RequestActionApprove, nil
	case RequestActionReject:
		return RequestActionReject, nil
	}
	return "", &ValidationError{Field: "action", Reason: "must be approve or reject"}
}

// Game is a catalog entry and its availability.
type Game struct {
	ID           string  `json:"id" db:"id"`
	Title        string  `json:"title" db:"title"`
	Category     string  `json:"category" db:"category"`
	Year         int     `json:"year" db:"year"`
	Console      string  `json:"console" db:"console"`
	Available    bool    `json:"available" db:"available"`
	BorrowedBy   *string `json:"borrowedBy,omitempty" db:"borrowed_by"`
	BorrowedDate *Date   `json:"borrowedDate,omitempty" db:"borrowed_date"`
}

// Loan records a game handed to a borrower. It is open until ReturnDate is set.
type Loan struct {
	ID           string `json:"id" db:"id"`
	GameID       string `json:"gameId" db:"game_id"`
	GameTitle    string `json:"gameTitle" db:"game_title"`
	BorrowerName string `json:"borrowerName" db:"borrower_name"`
	BorrowDate   Date   `json:"borrowDate" db:"borrow_date"`
	ReturnDate   *Date  `json:"returnDate,omitempty" db:"return_date"`
}

// LoanRequest is a user's ask to borrow a game, decided once by an administrator.
type LoanRequest struct {
	ID          string        `json:"id" db:"id"`
	GameID      string        `json:"gameId" db:"game_id"`
	GameTitle   string        `json:"gameTitle" db:"game_title"`
	UserID      string        `json:"userId" db:"user_id"`
	UserName    string        `json:"userName" db:"user_name"`
	RequestDate Date          `json:"requestDate" db:"request_date"`
	Status      RequestStatus `json:"status" db:"status"`
}

// User is a directory entry. PasswordHash is stored but stripped by Public.
type User struct {
	ID           string   `json:"id" db:"id"`
	Name         string   `json:"name" db:"name"`
	Email        string   `json:"email" db:"email"`
	Role         UserRole `json:"role" db:"role"`
	PasswordHash string   `json:"passwordHash,omitempty" db:"password_hash"`
}

// Business logic methods for Game

// IsConsistent checks that availability and the borrow fields agree.
func (g Game) IsConsistent() bool {
	borrowed := g.BorrowedBy != nil && g.BorrowedDate != nil
	lent := g.BorrowedBy != nil || g.BorrowedDate != nil
	if g.Available {
		return !lent
	}
	return borrowed
}

// MarkBorrowed flips an available game to borrowed.
func (g *Game) MarkBorrowed(borrowerName string, date Date) error {
	if !g.Available {
		return &ConflictError{Entity: "game", ID: g.ID, Reason: "game is not available"}
	}
	name := borrowerName
	d := date
	g.Available = false
	g.BorrowedBy = &name
	g.BorrowedDate = &d
	return nil
}

// MarkReturned clears the borrow fields. It reports false when the game was already available.
func (g *Game) MarkReturned() bool {
	if g.Available && g.BorrowedBy == nil && g.BorrowedDate == nil {
		return false
	}
	g.Available = true
	g.BorrowedBy = nil
	g.BorrowedDate = nil
	return true
}

// Business logic methods for Loan

// IsOpen reports whether the loan has not been returned yet.
func (l Loan) IsOpen() bool {
	return l.ReturnDate == nil
}

// Close sets the return date of an open loan.
func (l *Loan) Close(date Date) error {
	if !l.IsOpen() {
		return &ConflictError{Entity: "loan", ID: l.ID, Reason: "loan is already closed"}
	}
	d := date
	l.ReturnDate = &d
	return nil
}

// Business logic methods for LoanRequest

// Decide moves a pending request into its terminal state.
func (r *LoanRequest) Decide(action RequestAction) error {
	if r.Status != RequestStatusPending {
		return &ConflictError{Entity: "loan request", ID: r.ID, Reason: "request already " + string(r.Status)}
	}
	switch action {
	case RequestActionApprove:
		r.Status = RequestStatusApproved
	case RequestActionReject:
		r.Status = RequestStatusRejected
	default:
		return &ValidationError{Field: "action", Reason: "must be approve or reject"}
	}
	return nil
}

// Business logic methods for User

// IsAdmin reports whether the user may run administrator operations.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// Public returns a copy safe to send to clients.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
