package sample

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int) []Sample {
	now := time.Unix(1700000000, 0)
	samples := make([]Sample, n)
	for i := range samples {
		samples[i] = Sample{
			Timestamp: now.Add(time.Duration(i) * 10 * time.Millisecond),
			Speeds:    [2]float64{float64(i), -float64(i)},
		}
	}
	return samples
}

func TestDownsample_NoDownsampling(t *testing.T) {
	samples := ramp(3)

	// Test with nil dst
	result := Downsample(nil, samples, 10)
	assert.Equal(t, samples, result)

	// Test with sufficient capacity dst
	dst := make([]Sample, 0, 10)
	result = Downsample(dst, samples, 10)
	assert.Equal(t, samples, result)
	// Should reuse dst
	assert.Equal(t, cap(dst), cap(result))
}

func TestDownsample_WithDownsampling(t *testing.T) {
	samples := ramp(100)

	dst := make([]Sample, 0, 20)
	result := Downsample(dst, samples, 10)
	require.Len(t, result, 10)
	assert.Equal(t, cap(dst), cap(result))

	assert.Equal(t, samples[0], result[0])
	assert.Equal(t, samples[99], result[9])
	for i := 1; i < len(result); i++ {
		assert.True(t, result[i].Timestamp.After(result[i-1].Timestamp))
	}
}

func TestDownsample_SmallDst(t *testing.T) {
	samples := ramp(50)
	result := Downsample(make([]Sample, 0, 2), samples, 5)
	require.Len(t, result, 5)
	assert.Equal(t, samples[49], result[4])
}

func TestDownsample_Empty(t *testing.T) {
	assert.Empty(t, Downsample(nil, nil, 10))
}
