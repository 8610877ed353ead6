package sample

// Downsample reduces samples to at most maxPoints by decimation, always
// keeping the first and last sample. dst is reused when it has enough
// capacity.
func Downsample(dst []Sample, samples []Sample, maxPoints int) []Sample {
	if len(samples) <= maxPoints || maxPoints < 2 {
		return append(dst[:0], samples...)
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]Sample, 0, maxPoints)
	}

	step := float64(len(samples)-1) / float64(maxPoints-1)
	for i := range maxPoints {
		dst = append(dst, samples[int(float64(i)*step+0.5)])
	}
	return dst
}
