package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankForXP_Boundaries(t *testing.T) {
	tests := []struct {
		xp   int64
		want Rank
	}{
		{0, RankE},
		{99, RankE},
		{100, RankD},
		{499, RankD},
		{500, RankC},
		{1999, RankC},
		{2000, RankB},
		{4999, RankB},
		{5000, RankA},
		{9999, RankA},
		{10000, RankS},
		{19999, RankS},
		{20000, RankNational},
		{49999, RankNational},
		{50000, RankMonarch},
		{1000000, RankMonarch},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RankForXP(tt.xp), "xp=%d", tt.xp)
	}
}

func TestRankForXP_Idempotent(t *testing.T) {
	for _, xp := range []int64{0, 100, 12345, 50000} {
		first := RankForXP(xp)
		assert.Equal(t, first, RankForXP(xp))
	}
}
