package tithe

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() PercentageTable {
	return PercentageTable{
		TitheOfTithe:       decimal.NewFromInt(10),
		FinanceCommittee:   decimal.NewFromInt(5),
		PastoralTithe:      decimal.NewFromInt(10),
		PastoralSustenance: decimal.NewFromInt(25),
	}
}

func TestPercentageTableValidate(t *testing.T) {
	t.Run("accepts a table under 100%", func(t *testing.T) {
		assert.NoError(t, testTable().Validate())
	})

	t.Run("accepts a table at exactly 100%", func(t *testing.T) {
		table := PercentageTable{
			TitheOfTithe:       decimal.NewFromInt(25),
			FinanceCommittee:   decimal.NewFromInt(25),
			PastoralTithe:      decimal.NewFromInt(25),
			PastoralSustenance: decimal.NewFromInt(25),
		}
		assert.NoError(t, table.Validate())
	})

	t.Run("rejects an empty table", func(t *testing.T) {
		assert.Error(t, PercentageTable{}.Validate())
	})

	t.Run("rejects negative entries", func(t *testing.T) {
		table := testTable()
		table.PastoralTithe = decimal.NewFromInt(-1)
		assert.Error(t, table.Validate())
	})

	t.Run("rejects a table over 100%", func(t *testing.T) {
		table := testTable()
		table.PastoralSustenance = decimal.NewFromInt(80)
		assert.Error(t, table.Validate())
	})
}

func TestCalculatorDistribute(t *testing.T) {
	calc, err := NewCalculator(testTable())
	require.NoError(t, err)

	t.Run("computes each share from its percentage", func(t *testing.T) {
		bd, err := calc.Distribute(decimal.NewFromInt(1000))
		require.NoError(t, err)
		assert.True(t, bd.TitheOfTithe.Equal(decimal.NewFromInt(100)))
		assert.True(t, bd.FinanceCommittee.Equal(decimal.NewFromInt(50)))
		assert.True(t, bd.PastoralTithe.Equal(decimal.NewFromInt(100)))
		assert.True(t, bd.PastoralSustenance.Equal(decimal.NewFromInt(250)))
	})

	t.Run("is deterministic", func(t *testing.T) {
		first, err := calc.Distribute(decimal.NewFromFloat(150.00))
		require.NoError(t, err)
		second, err := calc.Distribute(decimal.NewFromFloat(150.00))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("never exceeds the total", func(t *testing.T) {
		full, err := NewCalculator(PercentageTable{
			TitheOfTithe:       decimal.NewFromFloat(33.33),
			FinanceCommittee:   decimal.NewFromFloat(33.33),
			PastoralTithe:      decimal.NewFromFloat(33.33),
			PastoralSustenance: decimal.NewFromFloat(0.01),
		})
		require.NoError(t, err)

		for _, total := range []string{"0.01", "0.10", "1", "99.99", "1000", "12345.67"} {
			amount, perr := decimal.NewFromString(total)
			require.NoError(t, perr)
			bd, derr := full.Distribute(amount)
			require.NoError(t, derr)
			assert.True(t, bd.Total().LessThanOrEqual(amount),
				"breakdown %s exceeds total %s", bd.Total(), amount)
		}
	})

	t.Run("handles zero total", func(t *testing.T) {
		bd, err := calc.Distribute(decimal.Zero)
		require.NoError(t, err)
		assert.True(t, bd.Total().IsZero())
	})

	t.Run("rejects negative total", func(t *testing.T) {
		_, err := calc.Distribute(decimal.NewFromInt(-1))
		assert.Error(t, err)
	})
}

func TestNewCalculatorRejectsInvalidTable(t *testing.T) {
	_, err := NewCalculator(PercentageTable{})
	assert.Error(t, err)
}
