// Package audio implements the PCM sample codec and the playback scheduler
// shared by the live voice session and its clients.
//
// The wire format on both legs is 16-bit signed little-endian PCM, mono:
// 16 kHz toward the model, 24 kHz back from it.
package audio

import "encoding/binary"

const (
	// InputSampleRate is the capture rate expected by the live model.
	InputSampleRate = 16000
	// OutputSampleRate is the rate of audio returned by the live model.
	OutputSampleRate = 24000

	bytesPerSample = 2
)

// FloatToPCM16 converts normalized float samples to 16-bit signed PCM.
// Scaling is multiply-by-32768 with truncation; values at exactly 1.0 are
// not clamped.
func FloatToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = int16(s * 32768)
	}
	return out
}

// PCM16ToFloat converts 16-bit signed PCM samples to normalized floats.
func PCM16ToFloat(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768
	}
	return out
}

// DownmixStereo averages interleaved stereo frames into mono. An input with
// an odd sample count drops the trailing half-frame.
func DownmixStereo(interleaved []float32) []float32 {
	out := make([]float32, len(interleaved)/2)
	for i := range out {
		out[i] = (interleaved[2*i] + interleaved[2*i+1]) / 2
	}
	return out
}

// EncodePCM16LE serializes samples as little-endian bytes.
func EncodePCM16LE(samples []int16) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(s))
	}
	return out
}

// DecodePCM16LE deserializes little-endian bytes into samples. A trailing
// odd byte is ignored.
func DecodePCM16LE(data []byte) []int16 {
	out := make([]int16, len(data)/bytesPerSample)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*bytesPerSample:]))
	}
	return out
}

// Duration returns the playback length in seconds of a mono PCM16 byte
// payload at the given sample rate.
func Duration(byteLen int, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(byteLen/bytesPerSample) / float64(sampleRate)
}
