package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cuarta", "cuarta"},
		{"Cuarta", "cuarta"},
		{"  QUINTA ", "quinta"},
		{"Séptima", "septima"},
		{"décima", "decima"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCategory(tt.in), tt.in)
	}
}

func TestCategoryRequest(t *testing.T) {
	req := newCategoryRequest([]string{"Cuarta", "cuarta ", "Séptima", "primera", "Primera"})

	assert.Equal(t, []string{"cuarta", "septima", "primera"}, req.names)
	assert.Equal(t, []string{"primera"}, req.missing([]string{"cuarta", "septima"}))
	assert.Empty(t, req.missing([]string{"septima", "primera", "cuarta"}))

	blank := newCategoryRequest([]string{"", " ", "cuarta"})
	assert.Equal(t, []string{"", "cuarta"}, blank.names)
	assert.Equal(t, []string{""}, blank.missing([]string{"cuarta"}))
}
