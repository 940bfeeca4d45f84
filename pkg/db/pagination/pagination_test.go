package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	p := Pagination{}.Normalize(20, 100)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 0, p.Offset())

	p = Pagination{Page: 3, PageSize: 500}.Normalize(20, 100)
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, 200, p.Offset())
}

func TestBuildPageInfo(t *testing.T) {
	p := Pagination{Page: 2, PageSize: 10}
	assert.True(t, BuildPageInfo(p, 21).HasMore)
	assert.False(t, BuildPageInfo(p, 20).HasMore)
}
