package stt

import (
	"encoding/binary"
	"time"
)

const bitsPerSample = 16

// Recording is one complete captured utterance as raw 16-bit signed
// little-endian PCM.
type Recording struct {
	// PCM is the interleaved sample data.
	PCM []byte

	// SampleRate is the sample rate in Hz (48000 for Discord capture).
	SampleRate int

	// Channels is the number of interleaved channels.
	Channels int
}

// Duration returns the playback length of the recording.
func (r Recording) Duration() time.Duration {
	bytesPerSec := r.SampleRate * r.Channels * (bitsPerSample / 8)
	if bytesPerSec <= 0 {
		return 0
	}
	return time.Duration(len(r.PCM)) * time.Second / time.Duration(bytesPerSec)
}

// WAV wraps the PCM data in a standard RIFF/WAV container, suitable for
// direct upload to an HTTP transcription endpoint.
func (r Recording) WAV() []byte {
	byteRate := r.SampleRate * r.Channels * bitsPerSample / 8
	blockAlign := r.Channels * bitsPerSample / 8
	dataSize := len(r.PCM)

	buf := make([]byte, 44+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)                    // sub-chunk size (PCM)
	binary.LittleEndian.PutUint16(buf[20:22], 1)                     // audio format: PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(r.Channels))    // num channels
	binary.LittleEndian.PutUint32(buf[24:28], uint32(r.SampleRate))  // sample rate
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))      // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))    // block align
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bitsPerSample)) // bits per sample

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], r.PCM)

	return buf
}

// Transcript represents the result of transcribing one recording.
type Transcript struct {
	// Text is the full transcribed speech content.
	Text string

	// Confidence is the overall confidence score (0.0–1.0). May be zero if the
	// provider does not report confidence.
	Confidence float64

	// Segments contains per-utterance detail when the provider supports it.
	Segments []Segment
}

// Segment holds one timed span of the transcript.
type Segment struct {
	Text       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}
