// ABOUTME: Streaming linear resampler for int16 PCM
// ABOUTME: Keeps interpolation phase and the previous frame across chunks
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	step       float64 // input frames advanced per output frame
	position   float64 // read position in the current frames window
	prev       []int16 // last input frame of the previous chunk
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		step:       float64(inputRate) / float64(outputRate),
		prev:       make([]int16, channels),
	}
}

// Resample converts one interleaved chunk at the input rate to the output rate.
func (r *Resampler) Resample(input []int16) []int16 {
	if r.inputRate == r.outputRate {
		return append([]int16(nil), input...)
	}

	ch := r.channels
	inFrames := len(input) / ch
	if inFrames == 0 {
		return nil
	}

	// Window = previous frame (once primed) followed by this chunk.
	offset := 0
	if r.primed {
		offset = 1
	}
	windowFrames := inFrames + offset
	frameAt := func(i, c int) int16 {
		if i < offset {
			return r.prev[c]
		}
		return input[(i-offset)*ch+c]
	}

	out := make([]int16, 0, r.OutputSamplesNeeded(len(input))+ch)
	for {
		idx := int(r.position)
		if idx+1 >= windowFrames {
			break
		}
		frac := r.position - float64(idx)
		for c := 0; c < ch; c++ {
			a := float64(frameAt(idx, c))
			b := float64(frameAt(idx+1, c))
			out = append(out, int16(a+(b-a)*frac))
		}
		r.position += r.step
	}

	// Rebase so the last frame of this chunk becomes index 0 of the next window.
	r.position -= float64(windowFrames - 1)
	copy(r.prev, input[(inFrames-1)*ch:inFrames*ch])
	r.primed = true

	return out
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0
	r.primed = false
	for i := range r.prev {
		r.prev[i] = 0
	}
}

// OutputSamplesNeeded estimates how many output samples input samples produce
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames) / r.step)
	return outputFrames * r.channels
}

// InputSamplesNeeded estimates how many input samples yield outputSamples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames) * r.step)
	return inputFrames * r.channels
}

// Remix converts interleaved samples between mono and stereo. Other layouts
// are returned unchanged.
func Remix(samples []int16, from, to int) []int16 {
	switch {
	case from == to:
		return samples
	case from == 2 && to == 1:
		out := make([]int16, len(samples)/2)
		for i := range out {
			out[i] = int16((int32(samples[i*2]) + int32(samples[i*2+1])) / 2)
		}
		return out
	case from == 1 && to == 2:
		out := make([]int16, len(samples)*2)
		for i, s := range samples {
			out[i*2] = s
			out[i*2+1] = s
		}
		return out
	default:
		return samples
	}
}
