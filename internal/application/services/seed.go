package services

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/ports"
)

// DemoPassword is the password of every seeded demo user.
const DemoPassword = "123456"

// SeedGames returns the initial catalog.
func SeedGames() []entities.Game {
	borrowed := func(id, title, category string, year int, console, by string, date entities.Date) entities.Game {
		return entities.Game{
			ID: id, Title: title, Category: category, Year: year, Console: console,
			Available: false, BorrowedBy: &by, BorrowedDate: date.Ptr(),
		}
	}
	available := func(id, title, category string, year int, console string) entities.Game {
		return entities.Game{ID: id, Title: title, Category: category, Year: year, Console: console, Available: true}
	}

	return []entities.Game{
		available("1", "The Legend of Zelda: Breath of the Wild", "Aventura", 2017, "Nintendo Switch"),
		available("2", "God of War", "Acción", 2018, "PlayStation 4"),
		borrowed("3", "Halo Infinite", "Shooter", 2021, "Xbox Series X", "Juan Pérez", "2024-01-15"),
		available("4", "Super Mario Odyssey", "Plataformas", 2017, "Nintendo Switch"),
		available("5", "Cyberpunk 2077", "RPG", 2020, "PC"),
		borrowed("6", "FIFA 24", "Deportes", 2023, "PlayStation 5", "María García", "2024-01-20"),
		available("7", "Minecraft", "Sandbox", 2011, "PC"),
		available("8", "Call of Duty: Modern Warfare III", "Shooter", 2023, "Xbox Series X"),
	}
}

// SeedLoans returns the loans backing the two borrowed seed games.
func SeedLoans() []entities.Loan {
	return []entities.Loan{
		{ID: "1", GameID: "3", GameTitle: "Halo Infinite", BorrowerName: "Juan Pérez", BorrowDate: "2024-01-15"},
		{ID: "2", GameID: "6", GameTitle: "FIFA 24", BorrowerName: "María García", BorrowDate: "2024-01-20"},
	}
}

// SeedLoanRequests returns one decided and one pending request.
func SeedLoanRequests() []entities.LoanRequest {
	return []entities.LoanRequest{
		{
			ID: "1", GameID: "1", GameTitle: "The Legend of Zelda: Breath of the Wild",
			UserID: "2", UserName: "Juan Pérez", RequestDate: "2024-01-10", Status: entities.RequestStatusApproved,
		},
		{
			ID: "2", GameID: "5", GameTitle: "Cyberpunk 2077",
			UserID: "3", UserName: "María García", RequestDate: "2024-01-18", Status: entities.RequestStatusPending,
		},
	}
}

// SeedUsers returns the demo users without password hashes.
func SeedUsers() []entities.User {
	return []entities.User{
		{ID: "1", Name: "Administrador", Email: "admin@gameloans.com", Role: entities.UserRoleAdmin},
		{ID: "2", Name: "Juan Pérez", Email: "juan@email.com", Role: entities.UserRoleUser},
		{ID: "3", Name: "María García", Email: "maria@email.com", Role: entities.UserRoleUser},
	}
}

// SeedReport lists how many records were written per collection.
type SeedReport map[ports.Collection]int

// Seeder writes the initial data set into empty collections
type Seeder struct {
	ds         *DataStore
	bcryptCost int
	logger     *logger.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(ds *DataStore, bcryptCost int, logger *logger.Logger) *Seeder {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Seeder{ds: ds, bcryptCost: bcryptCost, logger: logger.WithComponent("seed")}
}

// Run seeds every empty collection in one unit of work. Non-empty collections are left alone.
func (s *Seeder) Run(ctx context.Context) (SeedReport, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash demo password: %w", err)
	}

	report := SeedReport{}
	err = s.ds.Update(ctx, func(tx *Tx) error {
		if len(tx.Games()) == 0 {
			for _, g := range SeedGames() {
				tx.PutGame(g)
			}
			report[ports.CollectionGames] = len(tx.Games())
		}
		if len(tx.Loans()) == 0 {
			for _, l := range SeedLoans() {
				tx.PutLoan(l)
			}
			report[ports.CollectionLoans] = len(tx.Loans())
		}
		if len(tx.LoanRequests()) == 0 {
			for _, r := range SeedLoanRequests() {
				tx.PutLoanRequest(r)
			}
			report[ports.CollectionLoanRequests] = len(tx.LoanRequests())
		}
		if len(tx.Users()) == 0 {
			for _, u := range SeedUsers() {
				u.PasswordHash = string(hash)
				tx.PutUser(u)
			}
			report[ports.CollectionUsers] = len(tx.Users())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for collection, n := range report {
		s.logger.Infow("Collection seeded", "collection", collection, "records", n)
	}
	return report, nil
}
