package helpers

import "golang.org/x/crypto/bcrypt"

// PasswordHasher hashes and checks passwords with bcrypt at a fixed cost.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher clamps out-of-range costs to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return PasswordHasher{cost: cost}
}

func (h PasswordHasher) Cost() int { return h.cost }

func (h PasswordHasher) Hash(plain string) (string, error) {
	cost := h.cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Matches reports whether plain hashes to hash. A malformed hash never matches.
func (PasswordHasher) Matches(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
