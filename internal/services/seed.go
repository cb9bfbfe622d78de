package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"userlist/internal/domain"
)

var (
	seedFirstNames = []string{"Blankenship", "Frederick", "Robinson", "Reed", "Alston", "Velez", "Marisol", "Tamika", "Hollie", "Dunn", "Gwen", "Ortega"}
	seedLastNames  = []string{"Vincent", "Stuart", "Alston", "Velez", "Mcdowell", "Gentry", "Shaffer", "Cannon", "Wolfe", "Sweeney", "Hahn", "Rios"}
	seedDomains    = []string{"rocklogic.com", "zentime.io", "quarx.net", "example.org"}
)

// GenerateUsers returns n users with random ids and names drawn from rng.
// Roughly one in four users has no contact.
func GenerateUsers(n int, rng *rand.Rand) []domain.User {
	users := make([]domain.User, 0, n)
	for range n {
		first, last := pick(rng, seedFirstNames), pick(rng, seedLastNames)
		var contact domain.PersonName
		if rng.IntN(4) != 0 {
			cf, cl := pick(rng, seedFirstNames), pick(rng, seedLastNames)
			contact = domain.NewPersonName(cf, cl, seedEmail(rng, cf, cl))
		}
		users = append(users, domain.NewUser(uuid.NewString(), first, last, seedEmail(rng, first, last), contact))
	}
	return users
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}

func seedEmail(rng *rand.Rand, first, last string) string {
	return strings.ToLower(first+last) + "@" + pick(rng, seedDomains)
}

// Seeder inserts generated users in batches and drops the cached count.
type Seeder struct {
	Repo      domain.UserRepository
	Cache     domain.CountCache
	Logger    *slog.Logger
	BatchSize int
}

// Seed inserts n generated users and returns how many were written.
func (s *Seeder) Seed(ctx context.Context, n int, rng *rand.Rand) (int, error) {
	batch := s.BatchSize
	if batch <= 0 {
		batch = 1000
	}
	written := 0
	for written < n {
		size := min(batch, n-written)
		inserted, err := s.Repo.BulkInsert(ctx, GenerateUsers(size, rng))
		written += inserted
		if err != nil {
			return written, fmt.Errorf("seed batch at %d: %w", written, err)
		}
		s.Logger.InfoContext(ctx, "seeded users", "batch", inserted, "total", written)
	}
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx); err != nil {
			return written, fmt.Errorf("invalidate count cache: %w", err)
		}
	}
	return written, nil
}
