package reservations

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
)

const (
	defaultNumberPrefix = "RSV"
	numberAttempts      = 5
)

var numberSuffixSpace = big.NewInt(10000)

// numberGenerator issues human-facing reservation numbers of the form
// PREFIX + yyyyMMddHHmmss (hotel time) + four random digits.
type numberGenerator struct {
	prefix string
	loc    *time.Location
}

func newNumberGenerator(prefix string, loc *time.Location) *numberGenerator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = defaultNumberPrefix
	}
	if loc == nil {
		loc = time.UTC
	}
	return &numberGenerator{prefix: prefix, loc: loc}
}

func (g *numberGenerator) format(now time.Time, suffix int64) string {
	return fmt.Sprintf("%s%s%04d", g.prefix, now.In(g.loc).Format("20060102150405"), suffix)
}

func (g *numberGenerator) next(ctx context.Context, repo Repository, now time.Time) (string, error) {
	for attempt := 0; attempt < numberAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, numberSuffixSpace)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reservation number")
		}
		number := g.format(now, n.Int64())
		exists, err := repo.NumberExists(ctx, number)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check reservation number")
		}
		if !exists {
			return number, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique reservation number")
}
