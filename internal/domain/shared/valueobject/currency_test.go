package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		input   string
		want    Currency
		wantErr bool
	}{
		{"COP", COP, false},
		{"usd", USD, false},
		{" pyg ", PYG, false},
		{"VES", VES, false},
		{"EUR", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCurrency(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrency_Symbol(t *testing.T) {
	assert.Equal(t, "$", COP.Symbol())
	assert.Equal(t, "US$", USD.Symbol())
	assert.Equal(t, "₲", PYG.Symbol())
	assert.Equal(t, "Bs.S", VES.Symbol())
	assert.Equal(t, "EUR", Currency("EUR").Symbol())
}

func TestSupportedCurrencies(t *testing.T) {
	list := SupportedCurrencies()
	assert.Len(t, list, 10)
	assert.Equal(t, COP, list[0])

	list[0] = "XXX"
	assert.Equal(t, COP, SupportedCurrencies()[0], "returned slice must be a copy")
}
