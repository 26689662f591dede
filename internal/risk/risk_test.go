package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"capital-trader/internal/config"
	"capital-trader/internal/models"
)

type holdings struct {
	balance   decimal.Decimal
	portfolio map[string]decimal.Decimal
}

func (h holdings) Balance() decimal.Decimal              { return h.balance }
func (h holdings) Portfolio() map[string]decimal.Decimal { return h.portfolio }

func withQuantity(qty int64) holdings {
	return holdings{portfolio: map[string]decimal.Decimal{"X": decimal.NewFromInt(qty)}}
}

func TestAssessTierBoundaries(t *testing.T) {
	a := DefaultAssessor()

	tests := []struct {
		qty  int64
		want models.RiskTier
	}{
		{0, models.RiskLow},
		{10, models.RiskLow},
		{11, models.RiskMedium},
		{100, models.RiskMedium},
		{101, models.RiskHigh},
	}
	for _, tt := range tests {
		report := a.Assess(withQuantity(tt.qty))
		assert.Equal(t, tt.want, report.Tier, "qty %d", tt.qty)
		assert.True(t, report.Exposure.Equal(decimal.NewFromInt(tt.qty)))
	}
}

func TestAssessSumsAbsoluteQuantities(t *testing.T) {
	h := holdings{portfolio: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(6),
		"TSLA": decimal.NewFromInt(-6),
	}}
	report := DefaultAssessor().Assess(h)
	assert.Equal(t, models.RiskMedium, report.Tier)
	assert.True(t, report.Exposure.Equal(decimal.NewFromInt(12)))

	assert.Equal(t, models.RiskLow, DefaultAssessor().Assess(holdings{}).Tier)
}

func TestAssessCustomThresholds(t *testing.T) {
	a := NewAssessor(config.RiskConfig{MediumThreshold: 1, HighThreshold: 2})
	assert.Equal(t, models.RiskLow, a.Assess(withQuantity(1)).Tier)
	assert.Equal(t, models.RiskMedium, a.Assess(withQuantity(2)).Tier)
	assert.Equal(t, models.RiskHigh, a.Assess(withQuantity(3)).Tier)
}

func TestSuggestPositionSize(t *testing.T) {
	a := DefaultAssessor()
	h := holdings{balance: decimal.NewFromInt(55000)}

	assert.True(t, a.SuggestPositionSize(h, decimal.NewFromInt(150)).Equal(decimal.NewFromInt(36)))
	assert.True(t, a.SuggestPositionSize(h, decimal.NewFromInt(5501)).IsZero())
	assert.True(t, a.SuggestPositionSize(h, decimal.Zero).IsZero())
	assert.True(t, a.SuggestPositionSize(h, decimal.NewFromInt(-1)).IsZero())
	assert.True(t, a.SuggestPositionSize(holdings{}, decimal.NewFromInt(1)).IsZero())

	custom := NewAssessor(config.RiskConfig{PositionFraction: 0.5})
	assert.True(t, custom.SuggestPositionSize(h, decimal.NewFromInt(100)).Equal(decimal.NewFromInt(275)))
}
