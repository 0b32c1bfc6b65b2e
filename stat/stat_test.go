package stat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var sample = []float64{2, 4, 4, 4, 5, 5, 7, 9}

func TestPopulationStdDev(t *testing.T) {
	assert.InDelta(t, 2.0, PopulationStdDev(sample), 1e-9)
	assert.Zero(t, PopulationStdDev(nil))
	assert.Zero(t, PopulationStdDev([]float64{7}))
	assert.Zero(t, PopulationStdDev([]float64{3, 3, 3}))
}

func TestSampleStdDev(t *testing.T) {
	assert.InDelta(t, 2.13809, SampleStdDev(sample), 1e-5)
	assert.Zero(t, SampleStdDev(nil))
	assert.Zero(t, SampleStdDev([]float64{7}))
	assert.Zero(t, SampleStdDev([]float64{3, 3, 3}))
}

func TestClean(t *testing.T) {
	assert.Equal(t,
		[]float64{170.5, 168, -1},
		Clean([]float64{170.5, 0, 168, math.NaN(), -1, math.Inf(1), 0}))
	assert.Nil(t, Clean(nil))
	assert.Nil(t, Clean([]float64{0, 0, 0}))
}

func TestAggregate(t *testing.T) {
	s := Aggregate(sample)
	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5, s.Mean, 1e-9)
	assert.InDelta(t, 2.0, s.StdDev, 1e-9)

	// the zero sentinel must not count as a measurement
	s = Aggregate([]float64{2, 0, 4, 4, 4, 0, 5, 5, 7, 9, 0})
	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5, s.Mean, 1e-9)
	assert.InDelta(t, 2.0, s.StdDev, 1e-9)

	assert.Equal(t, Summary{}, Aggregate(nil))
	assert.Equal(t, Summary{}, Aggregate([]float64{0, 0}))
}

func TestAggregateSample(t *testing.T) {
	s := AggregateSample(sample)
	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5, s.Mean, 1e-9)
	assert.InDelta(t, 2.13809, s.StdDev, 1e-5)

	assert.Equal(t, Summary{}, AggregateSample(nil))
}
