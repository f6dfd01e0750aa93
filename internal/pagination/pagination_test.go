package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPagesIsCeil(t *testing.T) {
	for _, limit := range []int{1, 2, 3, 7, 10, 100} {
		for total := int64(0); total <= 250; total++ {
			want := int(math.Ceil(float64(total) / float64(limit)))
			assert.Equal(t, want, TotalPages(total, limit), "total=%d limit=%d", total, limit)
		}
	}
}

func TestTotalPagesInvalidLimit(t *testing.T) {
	assert.Equal(t, 0, TotalPages(10, 0))
	assert.Equal(t, 0, TotalPages(10, -5))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 10))
	assert.Equal(t, 20, Offset(3, 10))
	assert.Equal(t, 0, Offset(0, 10))
	assert.Equal(t, 0, Offset(2, 0))
}

func TestOffsetSaturates(t *testing.T) {
	assert.Equal(t, math.MaxInt, Offset(1<<60, 100))
	assert.Equal(t, math.MaxInt, Offset(math.MaxInt, 2))
	assert.Equal(t, math.MaxInt-3, Offset(math.MaxInt/2, 2))
}

func TestNew(t *testing.T) {
	p := New(2, 10, 31)
	assert.Equal(t, Pagination{Page: 2, Limit: 10, Total: 31, TotalPages: 4}, p)
}
