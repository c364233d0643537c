// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Carries the last input frame across calls so chunk boundaries interpolate
package resample

import "math"

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64 // in input frames, relative to lastSample
	lastSample []int32 // one sample per channel
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastSample: make([]int32, channels),
	}
}

// Resample converts input samples to output sample rate using linear interpolation.
// input: interleaved samples at inputRate
// output: interleaved samples at outputRate, sized with OutputCapacity
// All input is consumed; output beyond len(output) is dropped.
func (r *Resampler) Resample(input []int32, output []int32) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}

	if !r.primed {
		copy(r.lastSample, input[:r.channels])
		r.primed = true
		input = input[r.channels:]
		inputFrames--
	}

	// frame k of the virtual sequence is lastSample for k == 0, input[k-1] otherwise
	frame := func(k, ch int) int32 {
		if k == 0 {
			return r.lastSample[ch]
		}
		return input[(k-1)*r.channels+ch]
	}

	outputFrames := len(output) / r.channels
	outIdx := 0
	for outIdx < outputFrames {
		idx := int(r.position)
		if idx >= inputFrames {
			break
		}
		frac := r.position - float64(idx)
		for ch := 0; ch < r.channels; ch++ {
			s1 := float64(frame(idx, ch))
			s2 := float64(frame(idx+1, ch))
			output[outIdx*r.channels+ch] = int32(math.Round(s1*(1.0-frac) + s2*frac))
		}
		outIdx++
		r.position += r.ratio
	}

	if inputFrames > 0 {
		copy(r.lastSample, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
		r.position -= float64(inputFrames)
		if r.position < 0 {
			r.position = 0
		}
	}

	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	r.primed = false
	for i := range r.lastSample {
		r.lastSample[i] = 0
	}
}

// OutputCapacity returns an output size large enough to hold the result of
// resampling inputSamples
func (r *Resampler) OutputCapacity(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	return (int(math.Ceil(float64(inputFrames)/r.ratio)) + 2) * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(math.Ceil(float64(outputFrames) * r.ratio))
	if inputFrames < 1 {
		inputFrames = 1
	}
	return inputFrames * r.channels
}
