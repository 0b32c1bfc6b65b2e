package report

import (
	"testing"

	"github.com/fpawel/netmass/aql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	smp := Sample{
		Product:      "мука в/с",
		Nominal:      185,
		SampleSize:   4,
		QualityLevel: "1.0%",
		Values:       []float64{185, 170, 160, 0},
	}
	sections, err := Build(smp, aql.DefaultPlan)
	require.NoError(t, err)
	require.Len(t, sections, 4)

	limits := sections[0]
	assert.Equal(t, "Допуски массы нетто: мука в/с", limits.Name)
	require.Len(t, limits.Params, 4)
	for _, p := range limits.Params {
		require.Len(t, p.Values, 1)
		assert.True(t, p.Values[0].Validated)
		assert.True(t, p.Values[0].Valid)
		assert.Contains(t, p.Values[0].Detail, "номинал")
	}
	assert.Equal(t, "168.35", limits.Params[1].Values[0].Value, "тара 2")

	units := sections[1].Params[0]
	require.Len(t, units.Values, 4)
	assert.True(t, units.Values[0].Valid, "185 conforms")
	assert.True(t, units.Values[1].Validated)
	assert.False(t, units.Values[1].Valid, "170 is defective")
	assert.False(t, units.Values[2].Valid, "160 is critical")
	assert.False(t, units.Values[3].Validated, "zero means not weighed")
	assert.Equal(t, "170", units.Values[1].Value)
	assert.Contains(t, units.Values[2].Detail, "critical")

	stats := sections[2]
	require.Len(t, stats.Params, 3)
	assert.Equal(t, "3", stats.Params[0].Values[0].Value, "zero sentinel excluded from count")

	verdicts := sections[3]
	require.Len(t, verdicts.Params, 2)
	for _, p := range verdicts.Params {
		v := p.Values[0]
		assert.True(t, v.Validated)
		assert.False(t, v.Valid, "a critical unit rejects both tiers")
		assert.Equal(t, "REJECTED", v.Value)
		assert.Contains(t, v.Detail, "критических")
	}
}

func TestBuildAccepted(t *testing.T) {
	smp := Sample{
		Product:      "сахар",
		Nominal:      185,
		SampleSize:   5,
		QualityLevel: "1.5%",
		Values:       []float64{185, 184.2, 186, 183.9, 185.5},
	}
	sections, err := Build(smp, aql.DefaultPlan)
	require.NoError(t, err)
	verdicts := sections[3]
	assert.Equal(t, "ACCEPTED", verdicts.Params[0].Values[0].Value)
	assert.Equal(t, "ACCEPTED", verdicts.Params[1].Values[0].Value)
}

func TestBuildNothingWeighed(t *testing.T) {
	smp := Sample{
		Product:      "соль",
		Nominal:      185,
		SampleSize:   3,
		QualityLevel: "1.0%",
	}
	sections, err := Build(smp, aql.DefaultPlan)
	require.NoError(t, err)

	stats := sections[2]
	assert.False(t, stats.Params[1].Values[0].Validated, "no measurements, no mean")

	verdicts := sections[3]
	assert.Equal(t, "ACCEPTED", verdicts.Params[0].Values[0].Value)
	assert.Equal(t, "ACCEPTED", verdicts.Params[1].Values[0].Value)
}

func TestBuildNominalNotConfigured(t *testing.T) {
	_, err := Build(Sample{Product: "x", SampleSize: 3, QualityLevel: "1.0%"}, aql.DefaultPlan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestBuildPlanError(t *testing.T) {
	p := aql.Plan{{Size: 3, Levels: map[string]aql.AcRe{"2.5%": {Ac: 0, Re: 1}}}}
	_, err := Build(Sample{Nominal: 185, SampleSize: 3, QualityLevel: "4.0%"}, p)
	require.Error(t, err)
}
