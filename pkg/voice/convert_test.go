package voice_test

import (
	"encoding/binary"
	"testing"

	"github.com/stafflens/stafflens/pkg/voice"
)

// samplesToBytes converts a slice of int16 samples to little-endian byte representation.
func samplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// bytesToSamples converts a little-endian byte slice to int16 samples.
func bytesToSamples(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return samples
}

func TestMonoToStereo(t *testing.T) {
	mono := samplesToBytes([]int16{100, 200, 300})
	stereo := voice.MonoToStereo(mono)
	got := bytesToSamples(stereo)
	want := []int16{100, 100, 200, 200, 300, 300}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestStereoToMono(t *testing.T) {
	// Two stereo frames: L=100,R=200 and L=-100,R=-200
	stereo := samplesToBytes([]int16{100, 200, -100, -200})
	mono := voice.StereoToMono(stereo)
	got := bytesToSamples(mono)
	want := []int16{150, -150}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestResampleMono16_Doubling(t *testing.T) {
	// Doubling the sample rate should roughly double the sample count.
	src := samplesToBytes([]int16{0, 1000, 2000, 3000})
	out := voice.ResampleMono16(src, 24000, 48000)
	if len(out)%2 != 0 {
		t.Fatalf("odd output byte count %d", len(out))
	}
	gotSamples := len(out) / 2
	if gotSamples != 8 {
		t.Errorf("sample count: got %d, want 8", gotSamples)
	}
}

func TestResampleMono16_SameRateUnchanged(t *testing.T) {
	src := samplesToBytes([]int16{5, 10, 15})
	out := voice.ResampleMono16(src, 48000, 48000)
	if &out[0] != &src[0] {
		t.Error("same-rate resample should return the input unchanged")
	}
}

func TestConvert_FastPath(t *testing.T) {
	track := voice.Track{
		PCM:        samplesToBytes([]int16{1, 2, 3, 4}),
		SampleRate: 48000,
		Channels:   2,
	}
	out := voice.Convert(track, voice.Format{SampleRate: 48000, Channels: 2})
	if &out.PCM[0] != &track.PCM[0] {
		t.Error("matching format should return the track unchanged")
	}
}

func TestConvert_MonoUpsampleToStereo(t *testing.T) {
	// 24 kHz mono → 48 kHz stereo: sample count ×2, then interleaved ×2.
	track := voice.Track{
		PCM:        samplesToBytes(make([]int16, 240)),
		SampleRate: 24000,
		Channels:   1,
	}
	out := voice.Convert(track, voice.Format{SampleRate: 48000, Channels: 2})
	if out.SampleRate != 48000 || out.Channels != 2 {
		t.Fatalf("format: got %dHz/%dch, want 48000Hz/2ch", out.SampleRate, out.Channels)
	}
	wantBytes := 240 * 2 * 2 * 2 // samples ×2 (rate) ×2 (channels) ×2 (bytes)
	if len(out.PCM) != wantBytes {
		t.Errorf("byte count: got %d, want %d", len(out.PCM), wantBytes)
	}
}

func TestTrackDuration(t *testing.T) {
	track := voice.Track{
		PCM:        make([]byte, 48000*2*2), // one second of 48 kHz stereo
		SampleRate: 48000,
		Channels:   2,
	}
	if got := track.Duration().Seconds(); got != 1.0 {
		t.Errorf("duration: got %vs, want 1s", got)
	}
}
