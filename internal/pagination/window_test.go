package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestWindow_ReturnsPrefix(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size PageSize
		want int
	}{
		{name: "25 records page 10", n: 25, size: PageSize10, want: 10},
		{name: "25 records page 20", n: 25, size: PageSize20, want: 20},
		{name: "25 records page 50", n: 25, size: PageSize50, want: 25},
		{name: "exactly one page", n: 10, size: PageSize10, want: 10},
		{name: "empty", n: 0, size: PageSize10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := seq(tt.n)

			got := Window(items, tt.size)

			require.Len(t, got, tt.want)
			assert.Equal(t, items[:tt.want], got)
		})
	}
}

func TestWindow_AppendDoesNotClobberSource(t *testing.T) {
	items := seq(15)

	got := Window(items, PageSize10)
	got = append(got, 99)

	assert.Equal(t, 10, items[10])
	assert.Len(t, got, 11)
}

func TestNewPageSize(t *testing.T) {
	for _, n := range []int{10, 20, 50} {
		p, err := NewPageSize(n)
		require.NoError(t, err)
		assert.Equal(t, PageSize(n), p)
	}

	for _, n := range []int{0, -10, 5, 25, 100} {
		_, err := NewPageSize(n)
		assert.ErrorIs(t, err, ErrInvalidPageSize)
	}
}

func TestPageSizes(t *testing.T) {
	assert.Equal(t, []PageSize{10, 20, 50}, PageSizes())
	assert.Equal(t, PageSize10, DefaultPageSize)
}
