package service

import "golang.org/x/crypto/bcrypt"

// PasswordHasher wraps bcrypt so the hashing cost is fixed once at startup.
// bcrypt generates a fresh random salt per call and embeds it in the output,
// so hashing the same password twice never yields the same string.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. The comparison is
// constant-time, and a malformed stored hash verifies as false rather than
// erroring out.
func (h *PasswordHasher) Verify(plaintext, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext)) == nil
}
