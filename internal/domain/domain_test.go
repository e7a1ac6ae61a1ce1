package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOrderStatusFor(t *testing.T) {
	cases := []struct {
		name  string
		total int64
		paid  int64
		want  string
	}{
		{"nothing paid", 10000, 0, ClientOrderPending},
		{"partial", 10000, 2500, ClientOrderPartial},
		{"exact", 10000, 10000, ClientOrderCompleted},
		{"within tolerance", 10000, 9999, ClientOrderCompleted},
		{"just outside tolerance", 10000, 9998, ClientOrderPartial},
		{"overpaid within tolerance", 10000, 10001, ClientOrderCompleted},
		{"tiny order unpaid", 1, 0, ClientOrderCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClientOrderStatusFor(tc.total, tc.paid))
		})
	}
}

func TestExceedsTotal(t *testing.T) {
	assert.False(t, ExceedsTotal(10000, 10000))
	assert.False(t, ExceedsTotal(10000, 10001))
	assert.True(t, ExceedsTotal(10000, 10002))
}

func TestPendingCentsNeverNegative(t *testing.T) {
	assert.Equal(t, int64(0), PendingCents(100, 101))
	assert.Equal(t, int64(40), PendingCents(100, 60))
}

func TestParseAmount(t *testing.T) {
	cents, err := ParseAmount("150.5")
	require.NoError(t, err)
	assert.Equal(t, int64(15050), cents)

	cents, err = ParseAmount("12,345")
	require.NoError(t, err)
	assert.Equal(t, int64(1235), cents)

	_, err = ParseAmount("abc")
	assert.Error(t, err)
	_, err = ParseAmount(" ")
	assert.Error(t, err)

	_, err = ParseAmount("184467440737095516.17")
	assert.Error(t, err)
	_, err = ParseAmount("-5")
	assert.Error(t, err)

	cents, err = ParseAmount("1000000000")
	require.NoError(t, err)
	assert.Equal(t, MaxAmountCents, cents)
	_, err = ParseAmount("1000000000.01")
	assert.Error(t, err)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "12.50", FormatCents(1250))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "-3.00", FormatCents(-300))
}

func TestParseDateAcceptsBothSeparators(t *testing.T) {
	a, err := ParseDate("2026-03-09")
	require.NoError(t, err)
	b, err := ParseDate("2026/03/09")
	require.NoError(t, err)
	assert.True(t, a.Equal(*b))

	empty, err := ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = ParseDate("09-03-2026")
	assert.Error(t, err)
}

func TestClientFullName(t *testing.T) {
	assert.Equal(t, "Ana López", Client{Name: "Ana", Surname: "López"}.FullName())
	assert.Equal(t, "Ana", Client{Name: "Ana"}.FullName())
}
