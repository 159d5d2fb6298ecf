package cogeo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaximumOverviewLevel(t *testing.T) {
	type tc struct {
		w, h, minsize int
		level         int
	}
	cases := []tc{
		{512, 512, 512, 0},
		{512, 512, 128, 2},
		{513, 513, 512, 1},
		{512, 128, 128, 0},
		{1024, 1024, 512, 1},
		{10980, 10980, 512, 5},
		{100, 100, 64, 1},
		{64, 64, 64, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.level, maximumOverviewLevel(c.w, c.h, c.minsize),
			"w=%d h=%d minsize=%d", c.w, c.h, c.minsize)
	}
}

func TestOverviewSequence(t *testing.T) {
	assert.Nil(t, overviewSequence(0))
	assert.Equal(t, []int{2}, overviewSequence(1))
	assert.Equal(t, []int{2, 4, 8}, overviewSequence(3))
	assert.Equal(t, []int{2, 4, 8, 16, 32}, overviewSequence(5))
}
