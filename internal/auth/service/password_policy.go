package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fricon/coreapi/internal/auth/store"
	"github.com/fricon/coreapi/pkg/cryptox"
	"github.com/fricon/coreapi/pkg/slogx"
)

// MinAcceptableScore is the lowest strength score a new password may have.
const MinAcceptableScore = 50

const specialChars = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?~`"

var (
	weakWords = []string{"password", "123456", "qwerty", "admin", "welcome", "fricon"}
	sequences = buildSequences()
)

// buildSequences lists every ascending triple: abc..xyz and 123..890.
func buildSequences() []string {
	var out []string
	for _, alphabet := range []string{"abcdefghijklmnopqrstuvwxyz", "1234567890"} {
		for i := 0; i+3 <= len(alphabet); i++ {
			out = append(out, alphabet[i:i+3])
		}
	}
	return out
}

type PasswordStrength struct {
	Score int    `json:"score"`
	Level string `json:"level"`
	Color string `json:"color"`
}

type PasswordValidation struct {
	Valid    bool             `json:"isValid"`
	Errors   []string         `json:"errors"`
	Strength PasswordStrength `json:"strength"`
}

// Score rates password from 0 to 100.
func Score(password string) int {
	if password == "" {
		return 0
	}

	score := 0
	n := utf8.RuneCountInString(password)

	switch {
	case n >= 16:
		score += 25
	case n >= 12:
		score += 20
	case n >= 8:
		score += 10
	}

	var lower, upper, digit, special bool
	unique := make(map[rune]struct{}, n)
	for _, r := range password {
		unique[r] = struct{}{}
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
		if strings.ContainsRune(specialChars, r) {
			special = true
		}
	}
	if lower {
		score += 10
	}
	if upper {
		score += 10
	}
	if digit {
		score += 10
	}
	if special {
		score += 15
	}
	if float64(len(unique)) >= float64(n)*0.7 {
		score += 10
	}

	if hasRepeatRun(password, 3) {
		score -= 15
	}

	folded := strings.ToLower(password)
	for _, seq := range sequences {
		if strings.Contains(folded, seq) {
			score -= 10
			break
		}
	}
	for _, w := range weakWords {
		if strings.Contains(folded, w) {
			score -= 15
			break
		}
	}

	return max(0, min(100, score))
}

func hasRepeatRun(s string, run int) bool {
	var prev rune
	count := 0
	for _, r := range s {
		if count > 0 && r == prev {
			count++
		} else {
			count = 1
		}
		if count >= run {
			return true
		}
		prev = r
	}
	return false
}

// Classify maps a score to its display level and color.
func Classify(score int) PasswordStrength {
	switch {
	case score < 30:
		return PasswordStrength{Score: score, Level: "Very Weak", Color: "#ff4444"}
	case score < 50:
		return PasswordStrength{Score: score, Level: "Weak", Color: "#ff8800"}
	case score < 70:
		return PasswordStrength{Score: score, Level: "Medium", Color: "#ffaa00"}
	case score < 85:
		return PasswordStrength{Score: score, Level: "Strong", Color: "#88cc00"}
	default:
		return PasswordStrength{Score: score, Level: "Very Strong", Color: "#00cc44"}
	}
}

func Strength(password string) PasswordStrength { return Classify(Score(password)) }

// PasswordPolicy checks new passwords for strength and recent reuse.
type PasswordPolicy struct {
	History store.PasswordHistory
	Hasher  *cryptox.PasswordHasher
	Depth   int
}

// IsReused reports whether candidate matches one of the user's recent
// passwords. A history lookup failure is logged and treated as "not reused"
// so that password changes stay available.
func (p *PasswordPolicy) IsReused(ctx context.Context, userID int64, candidate string) bool {
	hashes, err := p.History.ListRecentPasswordHashes(ctx, userID, p.Depth)
	if err != nil {
		slogx.FromContext(ctx).Error("password history lookup failed, skipping reuse check",
			"user_id", userID, "err", err)
		return false
	}

	for _, h := range hashes {
		if p.Hasher.Verify(candidate, h) == nil {
			return true
		}
	}
	return false
}

// Validate runs every rule and reports all violations.
func (p *PasswordPolicy) Validate(ctx context.Context, userID int64, password string) PasswordValidation {
	strength := Strength(password)
	errs := []string{}

	if p.IsReused(ctx, userID, password) {
		errs = append(errs, "password was used recently, choose a different one")
	}
	if strength.Score < MinAcceptableScore {
		errs = append(errs, fmt.Sprintf("password is too weak (%s), choose a stronger one",
			strings.ToLower(strength.Level)))
	}

	return PasswordValidation{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Strength: strength,
	}
}
