package audio

import (
	"bytes"
	"encoding/binary"
)

// WriteWAV wraps canonical PCM16 mono audio in a minimal WAV container, for
// engines whose API requires a file rather than raw samples. Grounded on
// the teacher's convertPCMToWAV helper in pkg/asr/whisper.go.
func WriteWAV(pcm []byte, sampleRate, channels int) []byte {
	var buf bytes.Buffer

	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2
	dataLen := len(pcm)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(pcm)

	return buf.Bytes()
}
