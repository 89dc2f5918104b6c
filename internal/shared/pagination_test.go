package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0, 45)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.PerPage)
	require.Equal(t, 3, p.TotalPages)

	p = NewPagination(2, 500, 45)
	require.Equal(t, 200, p.PerPage)
	require.Equal(t, 1, p.TotalPages)

	p = NewPagination(1, 10, 0)
	require.Equal(t, 0, p.TotalPages)

	p = NewPagination(3, 10, 21)
	require.Equal(t, 3, p.TotalPages)
}
