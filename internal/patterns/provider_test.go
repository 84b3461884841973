package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestProviderSwap(t *testing.T) {
	logger := zap.NewNop()
	first := Compile(DefaultTable(), false, logger)
	p := NewProvider(first, logger)

	assert.Same(t, first, p.Table())

	// A snapshot taken before the swap keeps scoring with the old
	// generation; new readers see the replacement.
	snapshot := p.Table()
	second := Compile(TableSpec{
		Categories: []CategorySpec{{
			Name:     CategorySubscription,
			Cap:      50,
			Patterns: []Spec{{Name: "only", Expr: `magazine`, Points: 50}},
		}},
	}, false, logger)
	p.Swap(second)

	assert.Same(t, second, p.Table())
	res := snapshot.Category(CategorySubscription).Score(NewInput("predplatne", false))
	assert.Equal(t, 50, res.Points)
	res = p.Table().Category(CategorySubscription).Score(NewInput("predplatne", false))
	assert.Zero(t, res.Points)
}
