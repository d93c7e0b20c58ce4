package result

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/asrgw/gateway/pkg/compose"
)

// Format is one of the response_format values the batch API accepts.
type Format string

const (
	FormatJSON        Format = "json"
	FormatText        Format = "text"
	FormatVerboseJSON Format = "verbose_json"
	FormatSRT         Format = "srt"
	FormatVTT         Format = "vtt"
)

// resplit re-splits every segment's text at punctuation boundaries via
// compose.SplitByPunctuation and rebases the resulting sentences' fractional
// timestamps onto the segment's own [StartSec, EndSec] window.
func resplit(segments []TranscriptionSegment) []compose.Sentence {
	var sentences []compose.Sentence
	for _, seg := range segments {
		sentences = append(sentences, compose.SplitByPunctuation(seg.Text, seg.StartSec, seg.EndSec)...)
	}
	return sentences
}

// RenderSRT renders an ASRResult as SubRip subtitles, re-splitting sentences
// and numbering entries densely from 1.
func RenderSRT(r ASRResult) string {
	sentences := resplit(r.Segments)

	var b strings.Builder
	for i, s := range sentences {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatSRTTimestamp(s.StartSec), formatSRTTimestamp(s.EndSec))
		b.WriteString(s.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// RenderVTT renders an ASRResult as WebVTT, re-splitting sentences and
// omitting cue numbering.
func RenderVTT(r ASRResult) string {
	sentences := resplit(r.Segments)

	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, s := range sentences {
		fmt.Fprintf(&b, "%s --> %s\n", formatVTTTimestamp(s.StartSec), formatVTTTimestamp(s.EndSec))
		b.WriteString(s.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// RenderText returns just the concatenated transcript text.
func RenderText(r ASRResult) string {
	return r.Text
}

// VerboseJSON is the response_format=verbose_json envelope.
type VerboseJSON struct {
	Task     string        `json:"task"`
	Language string        `json:"language"`
	Duration float64       `json:"duration"`
	Text     string        `json:"text"`
	Segments []jsonSegment `json:"segments"`
}

type jsonSegment struct {
	ID           int     `json:"id"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	Tokens       []int   `json:"tokens,omitempty"`
	AvgLogprob   float64 `json:"avg_logprob"`
	NoSpeechProb float64 `json:"no_speech_prob"`
}

// ToVerboseJSON builds the verbose_json payload. language, if empty, is
// detected heuristically: CJK-presence selects "zh", otherwise "en".
func ToVerboseJSON(r ASRResult, language string) VerboseJSON {
	if language == "" {
		language = detectLanguage(r.Text)
	}

	segs := make([]jsonSegment, 0, len(r.Segments))
	for _, s := range r.Segments {
		segs = append(segs, jsonSegment{
			ID:           s.ID,
			Start:        s.StartSec,
			End:          s.EndSec,
			Text:         s.Text,
			Tokens:       s.Tokens,
			AvgLogprob:   s.AvgLogprob,
			NoSpeechProb: s.NoSpeechProb,
		})
	}

	return VerboseJSON{
		Task:     "transcribe",
		Language: language,
		Duration: r.Duration,
		Text:     r.Text,
		Segments: segs,
	}
}

func detectLanguage(text string) string {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return "zh"
		}
	}
	return "en"
}

// formatSRTTimestamp renders seconds as HH:MM:SS,mmm.
func formatSRTTimestamp(sec float64) string {
	h, m, s, ms := splitSeconds(sec)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// formatVTTTimestamp renders seconds as HH:MM:SS.mmm.
func formatVTTTimestamp(sec float64) string {
	h, m, s, ms := splitSeconds(sec)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func splitSeconds(sec float64) (h, m, s, ms int) {
	total := int64(sec*1000 + 0.5)
	ms = int(total % 1000)
	total /= 1000
	s = int(total % 60)
	total /= 60
	m = int(total % 60)
	total /= 60
	h = int(total)
	return
}
