// Package compose turns a raw ASR transcript plus its segment-level
// timestamps into sentence-level results with proportionally redistributed
// timestamps, the shape the gateway's batch and streaming APIs hand back
// to callers.
package compose

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Sentence is one punctuation-delimited unit of a composed transcript,
// with its timestamps apportioned from the parent segment.
type Sentence struct {
	Text     string
	StartSec float64
	EndSec   float64
}

var (
	punctuationPattern  = regexp.MustCompile(`[，。！？；：,.!?;:]`)
	trailingPunctuation = regexp.MustCompile(`[，。！？；：,.!?;:]+$`)
	asrTagPattern       = regexp.MustCompile(`<\|[^|>]+\|>`)
)

// CleanASRTags strips engine-internal tags like <|zh|> or <|EMO_UNKNOWN|>
// from a raw transcript.
func CleanASRTags(text string) string {
	return strings.TrimSpace(asrTagPattern.ReplaceAllString(text, ""))
}

// SplitByPunctuation splits text into sentences at punctuation boundaries
// and apportions [startSec, endSec] across them in proportion to each
// sentence's rune length. The final sentence's end is snapped to endSec
// exactly, regardless of accumulated rounding. Ported from
// original_source/app/utils/text_processing.py's split_text_by_punctuation.
func SplitByPunctuation(text string, startSec, endSec float64) []Sentence {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	text = CleanASRTags(text)
	if text == "" {
		return nil
	}

	totalDuration := endSec - startSec
	if totalDuration <= 0 {
		clean := trailingPunctuation.ReplaceAllString(text, "")
		return []Sentence{{clean, startSec, endSec}}
	}

	parts := splitKeepDelimiters(text)

	var sentences []string
	current := ""
	for _, part := range parts {
		if part == "" {
			continue
		}
		if punctuationPattern.MatchString(part) && utf8.RuneCountInString(part) == 1 {
			current += part
			if strings.TrimSpace(current) != "" {
				sentences = append(sentences, strings.TrimSpace(current))
			}
			current = ""
		} else {
			current += part
		}
	}
	if strings.TrimSpace(current) != "" {
		sentences = append(sentences, strings.TrimSpace(current))
	}

	if len(sentences) == 0 {
		clean := trailingPunctuation.ReplaceAllString(text, "")
		return []Sentence{{clean, startSec, endSec}}
	}

	if len(sentences) == 1 {
		clean := trailingPunctuation.ReplaceAllString(sentences[0], "")
		return []Sentence{{clean, startSec, endSec}}
	}

	totalChars := 0
	for _, s := range sentences {
		totalChars += utf8.RuneCountInString(s)
	}
	if totalChars == 0 {
		clean := trailingPunctuation.ReplaceAllString(text, "")
		return []Sentence{{clean, startSec, endSec}}
	}

	result := make([]Sentence, 0, len(sentences))
	currentTime := startSec

	for _, sentence := range sentences {
		ratio := float64(utf8.RuneCountInString(sentence)) / float64(totalChars)
		duration := totalDuration * ratio
		segEnd := currentTime + duration
		clean := trailingPunctuation.ReplaceAllString(sentence, "")
		result = append(result, Sentence{clean, round3(currentTime), round3(segEnd)})
		currentTime = segEnd
	}

	if len(result) > 0 {
		last := result[len(result)-1]
		last.EndSec = endSec
		result[len(result)-1] = last
	}

	return result
}

// splitKeepDelimiters mirrors Python's re.split(pattern_with_capture_group,
// text): the matched punctuation characters are kept as their own elements
// interleaved with the surrounding text.
func splitKeepDelimiters(text string) []string {
	matches := punctuationPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}

	parts := make([]string, 0, len(matches)*2+1)
	prev := 0
	for _, m := range matches {
		parts = append(parts, text[prev:m[0]])
		parts = append(parts, text[m[0]:m[1]])
		prev = m[1]
	}
	parts = append(parts, text[prev:])
	return parts
}

func round3(v float64) float64 {
	const scale = 1000.0
	if v >= 0 {
		return float64(int64(v*scale+0.5)) / scale
	}
	return float64(int64(v*scale-0.5)) / scale
}
