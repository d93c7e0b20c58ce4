// Package audio provides decoding, resampling, and buffering of speech audio.
package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/asticode/go-astiav"
)

// TargetSampleRate is the canonical sample rate every decoded segment is
// resampled to before it reaches VAD, the splitter, or an ASR engine.
const TargetSampleRate = 16000

// Decoded holds canonical PCM16 mono audio plus its duration.
type Decoded struct {
	PCM        []byte
	SampleRate int
	Channels   int
	DurationMS int64
}

// DecodeFile demuxes and decodes an arbitrary container (mp3, mp4, mpeg,
// mpga, m4a, wav, webm, flac, ogg, amr, raw pcm, ...) at path into canonical
// PCM16 mono 16kHz. Format is sniffed by libav from the file's content and
// extension; no explicit format hint is required.
func DecodeFile(path string) (*Decoded, error) {
	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, fmt.Errorf("audio: failed to allocate format context")
	}
	defer fc.Free()

	if err := fc.OpenInput(path, nil, nil); err != nil {
		return nil, fmt.Errorf("audio: open input %s: %w", path, err)
	}
	defer fc.CloseInput()

	if err := fc.FindStreamInfo(nil); err != nil {
		return nil, fmt.Errorf("audio: find stream info: %w", err)
	}

	var stream *astiav.Stream
	for _, s := range fc.Streams() {
		if s.CodecParameters().MediaType() == astiav.MediaTypeAudio {
			stream = s
			break
		}
	}
	if stream == nil {
		return nil, fmt.Errorf("audio: no audio stream found in %s", path)
	}

	codec := astiav.FindDecoder(stream.CodecParameters().CodecID())
	if codec == nil {
		return nil, fmt.Errorf("audio: no decoder for codec %s", stream.CodecParameters().CodecID())
	}

	codecCtx := astiav.AllocCodecContext(codec)
	if codecCtx == nil {
		return nil, fmt.Errorf("audio: failed to allocate codec context")
	}
	defer codecCtx.Free()

	if err := stream.CodecParameters().ToCodecContext(codecCtx); err != nil {
		return nil, fmt.Errorf("audio: copy codec parameters: %w", err)
	}
	if err := codecCtx.Open(codec, nil); err != nil {
		return nil, fmt.Errorf("audio: open codec: %w", err)
	}

	inLayout := astiav.ChannelLayoutMono
	if codecCtx.ChannelLayout().Channels() > 1 {
		inLayout = astiav.ChannelLayoutStereo
	}

	resampler, err := NewResample(codecCtx.SampleRate(), TargetSampleRate, inLayout, astiav.ChannelLayoutMono)
	if err != nil {
		return nil, fmt.Errorf("audio: create resampler: %w", err)
	}
	defer resampler.Free()

	pkt := astiav.AllocPacket()
	defer pkt.Free()
	frame := astiav.AllocFrame()
	defer frame.Free()

	out := make([]byte, 0, 1<<20)

	for {
		if err := fc.ReadFrame(pkt); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("audio: read frame: %w", err)
		}
		if pkt.StreamIndex() != stream.Index() {
			pkt.Unref()
			continue
		}
		if err := codecCtx.SendPacket(pkt); err != nil {
			pkt.Unref()
			return nil, fmt.Errorf("audio: send packet: %w", err)
		}
		pkt.Unref()

		for {
			if err := codecCtx.ReceiveFrame(frame); err != nil {
				break
			}
			raw, err := frame.Data().Bytes(0)
			if err != nil {
				frame.Unref()
				return nil, fmt.Errorf("audio: read frame data: %w", err)
			}
			resampled, err := resampler.Resample(raw)
			frame.Unref()
			if err != nil {
				return nil, fmt.Errorf("audio: resample: %w", err)
			}
			out = append(out, resampled...)
		}
	}

	durationMS := int64(len(out)) * 1000 / int64(TargetSampleRate*2)

	return &Decoded{
		PCM:        out,
		SampleRate: TargetSampleRate,
		Channels:   1,
		DurationMS: durationMS,
	}, nil
}

// SniffContainer returns a best-effort container/extension hint for path,
// used only for diagnostics; DecodeFile does its own format probing
// regardless of this hint.
func SniffContainer(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	var header [12]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return ""
	}

	switch {
	case header[0] == 'R' && header[1] == 'I' && header[2] == 'F' && header[3] == 'F':
		return "wav"
	case header[0] == 'O' && header[1] == 'g' && header[2] == 'g' && header[3] == 'S':
		return "ogg"
	case header[0] == 0x1A && header[1] == 0x45 && header[2] == 0xDF && header[3] == 0xA3:
		return "webm"
	case header[4] == 'f' && header[5] == 't' && header[6] == 'y' && header[7] == 'p':
		return "mp4"
	case header[0] == 0xFF && (header[1]&0xE0) == 0xE0:
		return "mp3"
	default:
		return ""
	}
}
