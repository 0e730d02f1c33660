package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-audio/wav"
)

var ErrInvalidWAV = errors.New("invalid wav file")

type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Samples    int
	Duration   time.Duration
	// RMS is the root mean square level normalized to [0, 1].
	RMS float64
}

func (i WAVInfo) Canonical() bool {
	return i.SampleRate == TargetSampleRate && i.Channels == TargetChannels && i.BitDepth == TargetBitDepth
}

func (i WAVInfo) Silent(threshold float64) bool {
	return i.Samples == 0 || (threshold > 0 && i.RMS < threshold)
}

func ProbeWAV(path string) (WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return WAVInfo{}, ErrInvalidWAV
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return WAVInfo{}, fmt.Errorf("read pcm: %w", err)
	}

	info := WAVInfo{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}
	if buf == nil || info.Channels == 0 || info.SampleRate == 0 {
		return info, nil
	}

	info.Samples = len(buf.Data) / info.Channels
	info.Duration = time.Duration(info.Samples) * time.Second / time.Duration(info.SampleRate)
	info.RMS = rms(buf.Data, info.BitDepth)
	return info, nil
}

func rms(samples []int, bitDepth int) float64 {
	if len(samples) == 0 || bitDepth <= 0 {
		return 0
	}
	full := float64(int(1) << (bitDepth - 1))

	var sum float64
	for _, s := range samples {
		v := float64(s) / full
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

var ErrNotCanonical = errors.New("wav is not 16 kHz mono 16-bit")

// ReadPCM decodes a canonical WAV file into little-endian 16-bit samples,
// the layout live clients stream as raw PCM frames.
func ReadPCM(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if int(d.SampleRate) != TargetSampleRate || int(d.NumChans) != TargetChannels || int(d.BitDepth) != TargetBitDepth {
		return nil, ErrNotCanonical
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}

	out := make([]byte, 2*len(buf.Data))
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(s)))
	}
	return out, nil
}
