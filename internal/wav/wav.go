// Package wav builds and parses canonical 44-byte RIFF/WAVE PCM headers.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the size of a canonical PCM WAV header.
const HeaderSize = 44

// ErrInvalidHeader is returned when data does not start with a PCM WAV header.
var ErrInvalidHeader = errors.New("wav: invalid header")

// Format describes interleaved little-endian PCM.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// Speech is the format produced by the speech backends: 24 kHz mono 16-bit.
var Speech = Format{SampleRate: 24000, Channels: 1, BitsPerSample: 16}

// BlockAlign is the number of bytes per sample frame.
func (f Format) BlockAlign() int { return f.Channels * f.BitsPerSample / 8 }

// ByteRate is the number of bytes per second.
func (f Format) ByteRate() int { return f.SampleRate * f.BlockAlign() }

// Samples returns the number of whole frames in pcmLen bytes.
func (f Format) Samples(pcmLen int) int {
	if ba := f.BlockAlign(); ba > 0 {
		return pcmLen / ba
	}
	return 0
}

// Duration returns the playback length of pcmLen bytes in seconds.
func (f Format) Duration(pcmLen int) float64 {
	if f.SampleRate == 0 {
		return 0
	}
	return float64(f.Samples(pcmLen)) / float64(f.SampleRate)
}

// Header returns a 44-byte header for pcmLen bytes of audio in format f.
func Header(f Format, pcmLen int) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+pcmLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(f.ByteRate()))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(f.BlockAlign()))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(f.BitsPerSample))
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(pcmLen))
	return buf
}

// Encode wraps raw PCM in a WAV container.
func Encode(f Format, pcm []byte) []byte {
	out := make([]byte, 0, HeaderSize+len(pcm))
	out = append(out, Header(f, len(pcm))...)
	return append(out, pcm...)
}

// Info is what ParseHeader learned from a header.
type Info struct {
	Format  Format
	DataLen int
}

// ParseHeader reads a canonical 44-byte header.
func ParseHeader(data []byte) (*Info, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(data))
	}
	if !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE tag", ErrInvalidHeader)
	}
	if !bytes.Equal(data[12:16], []byte("fmt ")) || !bytes.Equal(data[36:40], []byte("data")) {
		return nil, fmt.Errorf("%w: non-canonical chunk layout", ErrInvalidHeader)
	}
	if binary.LittleEndian.Uint16(data[20:22]) != 1 {
		return nil, fmt.Errorf("%w: not PCM", ErrInvalidHeader)
	}
	return &Info{
		Format: Format{
			Channels:      int(binary.LittleEndian.Uint16(data[22:24])),
			SampleRate:    int(binary.LittleEndian.Uint32(data[24:28])),
			BitsPerSample: int(binary.LittleEndian.Uint16(data[34:36])),
		},
		DataLen: int(binary.LittleEndian.Uint32(data[40:44])),
	}, nil
}

// PCM returns the audio payload after the header. Data shorter than a header yields nil.
func PCM(data []byte) []byte {
	if len(data) <= HeaderSize {
		return nil
	}
	return data[HeaderSize:]
}
