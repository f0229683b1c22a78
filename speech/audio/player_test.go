package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/dgnsrekt/speechsync/speech"
)

// buildWAV assembles a minimal RIFF/WAVE file around pcm with the given
// format code and bit depth.
func buildWAV(format, bits uint16, pcm []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, format)
	binary.Write(&buf, binary.LittleEndian, uint16(Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(SampleRate*Channels*BytesPerSample))
	binary.Write(&buf, binary.LittleEndian, uint16(Channels*BytesPerSample))
	binary.Write(&buf, binary.LittleEndian, bits)

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

func TestExtractPCMUnwrapsWAV(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	got, err := extractPCM(buildWAV(1, 16, pcm))
	if err != nil {
		t.Fatalf("extractPCM failed: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("payload = % x, want % x", got, pcm)
	}
}

func TestExtractPCMPassesThroughRawPCM(t *testing.T) {
	raw := []byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60}
	got, err := extractPCM(raw)
	if err != nil {
		t.Fatalf("extractPCM failed: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("payload = % x, want passthrough", got)
	}
}

func TestExtractPCMRejectsNonPCMEncoding(t *testing.T) {
	// Format 3 is IEEE float.
	_, err := extractPCM(buildWAV(3, 32, []byte{0, 0, 0, 0}))
	if err == nil {
		t.Fatal("float WAV accepted")
	}
	if speech.CategoryOf(err) != speech.CategoryUnsupported {
		t.Errorf("category = %v, want unsupported-format", speech.CategoryOf(err))
	}
}

func TestExtractPCMRejects8Bit(t *testing.T) {
	_, err := extractPCM(buildWAV(1, 8, []byte{0, 0}))
	if err == nil {
		t.Fatal("8-bit WAV accepted")
	}
	if speech.CategoryOf(err) != speech.CategoryUnsupported {
		t.Errorf("category = %v, want unsupported-format", speech.CategoryOf(err))
	}
}

func TestExtractPCMMissingDataChunk(t *testing.T) {
	wav := buildWAV(1, 16, nil)
	wav = wav[:len(wav)-8] // drop the data chunk header
	_, err := extractPCM(wav)
	if err == nil {
		t.Fatal("headerless WAV accepted")
	}
	if speech.CategoryOf(err) != speech.CategoryDecode {
		t.Errorf("category = %v, want decode", speech.CategoryOf(err))
	}
}

func TestExtractPCMDataBeforeFormat(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(12))
	buf.WriteString("WAVE")
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(2))
	buf.Write([]byte{0, 0})

	_, err := extractPCM(buf.Bytes())
	if err == nil {
		t.Fatal("data-before-fmt WAV accepted")
	}
	if speech.CategoryOf(err) != speech.CategoryDecode {
		t.Errorf("category = %v, want decode", speech.CategoryOf(err))
	}
}

func TestExtractPCMSkipsUnknownChunks(t *testing.T) {
	pcm := []byte{0xAA, 0xBB}
	wav := buildWAV(1, 16, pcm)

	// Splice a LIST chunk between fmt and data.
	var buf bytes.Buffer
	buf.Write(wav[:36])
	buf.WriteString("LIST")
	binary.Write(&buf, binary.LittleEndian, uint32(4))
	buf.WriteString("INFO")
	buf.Write(wav[36:])

	got, err := extractPCM(buf.Bytes())
	if err != nil {
		t.Fatalf("extractPCM failed: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("payload = % x, want % x", got, pcm)
	}
}

func TestPositionReaderTracksReads(t *testing.T) {
	data := make([]byte, 100)
	pr := newPositionReader(data)

	buf := make([]byte, 30)
	if _, err := pr.Read(buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if pr.Position() != 30 {
		t.Errorf("position = %d, want 30", pr.Position())
	}

	if _, err := pr.Read(buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if pr.Position() != 60 {
		t.Errorf("position = %d, want 60", pr.Position())
	}
}

func TestPositionReaderSeekResetsPosition(t *testing.T) {
	pr := newPositionReader(make([]byte, 100))

	buf := make([]byte, 50)
	if _, err := pr.Read(buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if _, err := pr.Seek(10, io.SeekStart); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if pr.Position() != 10 {
		t.Errorf("position after seek = %d, want 10", pr.Position())
	}
}

func TestPositionReaderReadToEnd(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	pr := newPositionReader(data)

	buf := make([]byte, 8)
	n, err := pr.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("Read failed: %v", err)
	}
	if n != len(data) {
		t.Errorf("read %d bytes, want %d", n, len(data))
	}
	if _, err := pr.Read(buf); !errors.Is(err, io.EOF) {
		t.Errorf("read past end = %v, want io.EOF", err)
	}
	if pr.Position() != int64(len(data)) {
		t.Errorf("position = %d, want %d", pr.Position(), len(data))
	}
}
