package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultCost      = 12
	defaultMinLength = 6
	strongLength     = 12
	maxScore         = 5

	lowerAlphabet  = "abcdefghijklmnopqrstuvwxyz"
	upperAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitAlphabet  = "0123456789"
	symbolAlphabet = "!@#$%^&*()-_=+[]{}<>?"
)

// ErrTooShort is returned by [Hasher.Hash] when the password is below the
// configured minimum length.
var ErrTooShort = errors.New("password below minimum length")

// Common substrings that drop the strength score by one when present.
// Matched literally against the raw password: "Abcdef12!" does not trip
// the "abc" entry, "abcdef12!" does.
var commonPatterns = []string{"123", "abc", "qwe", "password", "admin"}

// Config holds bcrypt cost and the minimum accepted password length.
type Config struct {
	Cost      int
	MinLength int
}

// Hasher hashes, verifies, and scores passwords. Safe for concurrent use.
type Hasher struct {
	config Config
}

// NewHasher validates cfg and returns a ready Hasher. Zero values take the
// platform defaults (cost 12, minimum length 6).
func NewHasher(cfg Config) (*Hasher, error) {
	if cfg.Cost == 0 {
		cfg.Cost = defaultCost
	}
	if cfg.MinLength == 0 {
		cfg.MinLength = defaultMinLength
	}
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be within [%d,%d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.MinLength < 1 {
		return nil, errors.New("minimum password length must be positive")
	}

	return &Hasher{config: cfg}, nil
}

// Hash returns the salted bcrypt hash of password, or [ErrTooShort] when
// the password is below the minimum length.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < h.config.MinLength {
		return "", ErrTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.config.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches the stored hash. It returns
// false, never an error, on empty input or mismatch.
func (h *Hasher) Verify(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Strength is the result of [Hasher.ValidateStrength].
type Strength struct {
	Valid  bool
	Errors []string
	Score  int
}

// ValidateStrength scores a candidate password from 0 to 5 and collects
// hard rule violations. One point each for: minimum length, a lowercase
// letter, an uppercase letter, a digit, a symbol, and length of 12 or
// more, capped at 5; containing a common pattern costs one point. The
// password is valid only with zero hard errors and a score of at least 3.
func (h *Hasher) ValidateStrength(password string) Strength {
	var (
		hasLower, hasUpper, hasDigit, hasSymbol bool
	)
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	var result Strength

	if len(password) >= h.config.MinLength {
		result.Score++
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("must be at least %d characters", h.config.MinLength))
	}
	if hasLower {
		result.Score++
	} else {
		result.Errors = append(result.Errors, "must contain a lowercase letter")
	}
	if hasUpper {
		result.Score++
	} else {
		result.Errors = append(result.Errors, "must contain an uppercase letter")
	}
	if hasDigit {
		result.Score++
	} else {
		result.Errors = append(result.Errors, "must contain a digit")
	}
	if hasSymbol {
		result.Score++
	}
	if len(password) >= strongLength {
		result.Score++
	}
	if result.Score > maxScore {
		result.Score = maxScore
	}

	for _, pattern := range commonPatterns {
		if strings.Contains(password, pattern) {
			if result.Score > 0 {
				result.Score--
			}
			break
		}
	}

	result.Valid = len(result.Errors) == 0 && result.Score >= 3
	return result
}

// GenerateTempPassword produces a random password of the given length
// (minimum 12) guaranteed to contain at least one lowercase letter, one
// uppercase letter, one digit, and one symbol. Remaining characters are
// uniform over the combined alphabet and the result is shuffled.
func GenerateTempPassword(length int) (string, error) {
	if length < strongLength {
		length = strongLength
	}

	combined := lowerAlphabet + upperAlphabet + digitAlphabet + symbolAlphabet

	chars := make([]byte, 0, length)
	for _, alphabet := range []string{lowerAlphabet, upperAlphabet, digitAlphabet, symbolAlphabet} {
		c, err := randomChar(alphabet)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := randomChar(combined)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Fisher-Yates with crypto/rand indices.
	for i := len(chars) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := n.Int64()
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

func randomChar(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, err
	}
	return alphabet[n.Int64()], nil
}
