package wav

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeader_layout(t *testing.T) {
	h := Header(Speech, 48000)
	if len(h) != HeaderSize {
		t.Fatalf("header len = %d", len(h))
	}
	want := []byte{
		'R', 'I', 'F', 'F', 0xA4, 0xBB, 0x00, 0x00, // 36+48000 = 48036
		'W', 'A', 'V', 'E', 'f', 'm', 't', ' ',
		16, 0, 0, 0, 1, 0, 1, 0,
		0xC0, 0x5D, 0x00, 0x00, // 24000
		0x80, 0xBB, 0x00, 0x00, // 48000 bytes/s
		2, 0, 16, 0,
		'd', 'a', 't', 'a', 0x80, 0xBB, 0x00, 0x00,
	}
	if !bytes.Equal(h, want) {
		t.Errorf("header mismatch\n got %v\nwant %v", h, want)
	}
}

func TestParseHeader_roundTrip(t *testing.T) {
	pcm := bytes.Repeat([]byte{1, 2}, 1200)
	data := Encode(Speech, pcm)
	info, err := ParseHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if info.Format != Speech || info.DataLen != len(pcm) {
		t.Errorf("info = %+v", info)
	}
	if !bytes.Equal(PCM(data), pcm) {
		t.Error("PCM payload changed")
	}
	if got := Speech.Duration(len(pcm)); got != 0.05 {
		t.Errorf("duration = %v, want 0.05", got)
	}
}

func TestParseHeader_rejects(t *testing.T) {
	for name, data := range map[string][]byte{
		"short": []byte("RIFF"),
		"mp3":   append([]byte("ID3"), make([]byte, 60)...),
	} {
		if _, err := ParseHeader(data); !errors.Is(err, ErrInvalidHeader) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

func TestPCM_headerOnly(t *testing.T) {
	if PCM(Header(Speech, 0)) != nil {
		t.Error("header-only data should have no payload")
	}
}
