package splitauth

import "golang.org/x/crypto/bcrypt"

// Hasher is the one-way credential transform. Callers never see the
// algorithm; records store whatever opaque digest Hash produced.
//
// The cost is fixed at bcrypt's default of 10 rounds, which keeps a hash
// under ~100ms on commodity hardware while still being slow enough to matter.
type Hasher struct {
	// Cost overrides the bcrypt cost factor. Zero means bcrypt.DefaultCost.
	Cost int
}

func (h Hasher) cost() int {
	if h.Cost > 0 {
		return h.Cost
	}
	return bcrypt.DefaultCost
}

// Hash returns an opaque salted digest of plaintext.
func (h Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost())
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches a digest produced by Hash.
func (h Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
