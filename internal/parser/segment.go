package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Strategy names a segmentation tier.
type Strategy string

const (
	StrategyNone      Strategy = "none"
	StrategyAnswer    Strategy = "answer"
	StrategyNumber    Strategy = "number"
	StrategyBlankLine Strategy = "blank_line"
)

// Segmentation is the result of splitting pasted text into question blocks.
type Segmentation struct {
	Strategy Strategy
	Blocks   []string
}

type tier struct {
	strategy Strategy
	split    func(string) []string
}

// tiers are tried in order; the first one producing a block wins.
var tiers = []tier{
	{StrategyAnswer, SplitByAnswer},
	{StrategyNumber, SplitByNumber},
	{StrategyBlankLine, SplitByBlankLine},
}

// space mirrors the broad whitespace class of pasted web text, including U+3000.
const space = `[\s\p{Z}\x{FEFF}\v]`

var (
	extraBlankLines = regexp.MustCompile(`\n{3,}`)

	answerAnchor = regexp.MustCompile(`(?:正确答案|答案)[:：]` + space + `*[A-D]+`)

	numberMarker     = regexp.MustCompile(`^(?:\d+|[一二三四五六七八九十]+)[.、）)]`)
	lineNumberMarker = regexp.MustCompile(`\n(?:\d+|[一二三四五六七八九十]+)[.、）)]`)
	numberBoundary   = regexp.MustCompile(`\n(?:\d+|[一二三四五六七八九十]+)[.、）)]|\n*\z`)

	blankLine = regexp.MustCompile(`\n` + space + `*\n`)
)

// Segment normalizes text and splits it with the first tier that yields blocks.
func Segment(text string) Segmentation {
	text = normalize(text)
	if text == "" {
		return Segmentation{Strategy: StrategyNone}
	}

	for _, t := range tiers {
		if blocks := t.split(text); len(blocks) > 0 {
			return Segmentation{Strategy: t.strategy, Blocks: blocks}
		}
	}

	return Segmentation{Strategy: StrategyNone}
}

func normalize(text string) string {
	return strings.TrimSpace(extraBlankLines.ReplaceAllString(text, "\n\n"))
}

// SplitByAnswer splits text into blocks that each end with an answer marker such as "答案：B".
// A marker only closes a block when it is followed by optional whitespace and then either
// a new non-blank line or the end of the text; otherwise the block extends to the next marker.
func SplitByAnswer(text string) []string {
	var blocks []string

	cursor := 0
	for _, loc := range answerAnchor.FindAllStringIndex(text, -1) {
		end, ok := blockEndAfter(text, loc[1])
		if !ok {
			continue
		}

		if block := strings.TrimSpace(text[cursor:end]); block != "" {
			blocks = append(blocks, block)
		}
		cursor = end
	}

	return blocks
}

// blockEndAfter finds the furthest position in the whitespace run starting at from
// that is followed by "\n<non-space>" or by the end of text.
func blockEndAfter(text string, from int) (int, bool) {
	runEnd := from
	for runEnd < len(text) {
		r, size := utf8.DecodeRuneInString(text[runEnd:])
		if !isSpace(r) {
			break
		}
		runEnd += size
	}

	if runEnd == len(text) {
		return runEnd, true
	}
	if runEnd > from && text[runEnd-1] == '\n' {
		return runEnd - 1, true
	}

	return 0, false
}

// SplitByNumber splits text on numbered question prefixes ("1.", "2、", "三）").
// Only blocks mentioning both "A" and "B" are kept.
func SplitByNumber(text string) []string {
	var blocks []string

	pos := 0
	for pos < len(text) {
		start, markerEnd, ok := nextNumberMarker(text, pos)
		if !ok {
			break
		}

		bodyStart := skipSpace(text, markerEnd)
		end := len(text)
		if loc := numberBoundary.FindStringIndex(text[bodyStart:]); loc != nil {
			end = bodyStart + loc[0]
		}

		block := text[start:end]
		if strings.TrimSpace(block) != "" && strings.Contains(block, "A") && strings.Contains(block, "B") {
			blocks = append(blocks, strings.TrimSpace(block))
		}
		pos = end
	}

	return blocks
}

// nextNumberMarker finds the next marker at the start of text or right after a newline.
func nextNumberMarker(text string, pos int) (start, end int, ok bool) {
	if pos == 0 {
		if loc := numberMarker.FindStringIndex(text); loc != nil {
			return 0, loc[1], true
		}
	}

	loc := lineNumberMarker.FindStringIndex(text[pos:])
	if loc == nil {
		return 0, 0, false
	}
	return pos + loc[0], pos + loc[1], true
}

// SplitByBlankLine splits text on blank lines and keeps blocks that look like questions.
func SplitByBlankLine(text string) []string {
	var blocks []string

	for _, block := range blankLine.Split(text, -1) {
		if !strings.Contains(block, "A") || !strings.Contains(block, "B") {
			continue
		}
		if hasAnyOf(block, "正确答案", "答案", "A.", "A、", "A．") {
			blocks = append(blocks, strings.TrimSpace(block))
		}
	}

	return blocks
}

func hasAnyOf(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func skipSpace(text string, pos int) int {
	for pos < len(text) {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if !isSpace(r) {
			break
		}
		pos += size
	}
	return pos
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || unicode.Is(unicode.Z, r) || r == '\uFEFF'
}
