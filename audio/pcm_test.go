package audio

import (
	"math"
	"testing"
)

func TestFloatPCM16RoundTrip(t *testing.T) {
	// A 0.5 sample must survive the round trip within one quantization step.
	const step = 1.0 / 32768

	pcm := FloatToPCM16([]float32{0.5})
	back := PCM16ToFloat(pcm)

	if diff := math.Abs(float64(back[0]) - 0.5); diff > step {
		t.Errorf("round trip of 0.5 = %v (diff %v, want <= %v)", back[0], diff, step)
	}
}

func TestFloatToPCM16Truncates(t *testing.T) {
	cases := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{0.25, 8192},
		{-0.25, -8192},
		{0.99996948, 32767},  // just below full scale
		{-1.0, -32768},
		{0.00001, 0}, // truncation, not rounding
	}
	for _, c := range cases {
		got := FloatToPCM16([]float32{c.in})[0]
		if got != c.want {
			t.Errorf("FloatToPCM16(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestDownmixStereo(t *testing.T) {
	mono := DownmixStereo([]float32{1, 0, 0.5, 0.5, -1, 1})
	want := []float32{0.5, 0.5, 0}
	if len(mono) != len(want) {
		t.Fatalf("len = %d, want %d", len(mono), len(want))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("mono[%d] = %v, want %v", i, mono[i], want[i])
		}
	}
}

func TestPCM16LECodec(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}
	decoded := DecodePCM16LE(EncodePCM16LE(samples))

	if len(decoded) != len(samples) {
		t.Fatalf("len = %d, want %d", len(decoded), len(samples))
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Errorf("decoded[%d] = %d, want %d", i, decoded[i], samples[i])
		}
	}
}

func TestDecodePCM16LEIgnoresTrailingByte(t *testing.T) {
	if got := DecodePCM16LE([]byte{0x01, 0x00, 0xff}); len(got) != 1 || got[0] != 1 {
		t.Errorf("DecodePCM16LE = %v, want [1]", got)
	}
}

func TestDuration(t *testing.T) {
	// 24000 samples of mono PCM16 at 24kHz is one second.
	if d := Duration(48000, OutputSampleRate); d != 1.0 {
		t.Errorf("Duration(48000, 24000) = %v, want 1.0", d)
	}
	// 100ms at 16kHz.
	if d := Duration(3200, InputSampleRate); d != 0.1 {
		t.Errorf("Duration(3200, 16000) = %v, want 0.1", d)
	}
}
