package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	paise, err := ToMinorUnits(9999)
	require.NoError(t, err)
	assert.Equal(t, int64(999900), paise)

	paise, err = ToMinorUnits(0.29)
	require.NoError(t, err)
	assert.Equal(t, int64(29), paise)

	_, err = ToMinorUnits(0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParse(t *testing.T) {
	o, err := Parse([]byte(`{"id":"order_1","amount":999900,"status":"created","entity":"order"}`))
	require.NoError(t, err)
	assert.Equal(t, "order_1", o.ID)
	assert.Equal(t, int64(999900), o.Amount)
	assert.Equal(t, Currency, o.Currency)
	assert.Equal(t, StatusCreated, o.Status)

	_, err = Parse([]byte(`{"amount":1}`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)
}
