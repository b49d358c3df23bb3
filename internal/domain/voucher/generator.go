package voucher

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/bridgecart/backend/internal/domain/shared"
)

// codeAlphabet omits 0/O/1/I/L to keep codes unambiguous when read aloud
// or typed from a printed card.
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const (
	DefaultCodeLength    = 12
	MinCodeLength        = 8
	MaxCodeLength        = 32
	maxGenerationRetries = 5
)

// CodeExistenceChecker answers whether a code string is already taken.
type CodeExistenceChecker interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// CodeGenerator produces unique random redemption code strings.
type CodeGenerator struct {
	checker CodeExistenceChecker
}

func NewCodeGenerator(checker CodeExistenceChecker) *CodeGenerator {
	return &CodeGenerator{checker: checker}
}

// Generate returns a fresh code of the given length, retrying on collision
// a bounded number of times before failing.
func (g *CodeGenerator) Generate(ctx context.Context, length int) (string, error) {
	if length == 0 {
		length = DefaultCodeLength
	}
	if length < MinCodeLength || length > MaxCodeLength {
		return "", shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Code length must be between %d and %d", MinCodeLength, MaxCodeLength))
	}

	for attempt := 0; attempt < maxGenerationRetries; attempt++ {
		code, err := randomCode(length)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		exists, err := g.checker.ExistsByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code uniqueness: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", shared.NewDomainError("VALIDATION_ERROR",
		fmt.Sprintf("Could not generate a unique code after %d attempts", maxGenerationRetries))
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
