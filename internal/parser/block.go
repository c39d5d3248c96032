package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/domain/entities"
)

var (
	answerKey  = regexp.MustCompile(`(?i)(?:正确答案|答案)[:：]` + space + `*([A-D]+)`)
	answerLine = regexp.MustCompile(`(?im)(?:正确答案|答案)[:：]` + space + `*[A-D]+.*$`)

	questionNumber = regexp.MustCompile(`^(?:\d+[.、）)]` + space + `*|\d+` + space + `*[.、）)]|\d+\.)`)
	questionScore  = regexp.MustCompile(`\(` + space + `*(\d+(?:\.\d+)?)` + space + `*(?:分)?` + space + `*\)`)

	bracketAnswer = regexp.MustCompile(`(?i)([（(])` + space + `*([A-D]{1,4})` + space + `*([）)])`)

	optionMarker = regexp.MustCompile(`(?i)[A-D][.．、]`)
	optionLetter = regexp.MustCompile(`(?i)[A-D]`)
	optionEnd    = regexp.MustCompile(space + `*(?:(?i:[A-D])[.．、]|(?:正确答案|答案)[:：]|\z)`)
)

// Parse converts pasted text into questions. It never fails: blocks with missing
// parts produce questions with empty fields or placeholder options.
func Parse(text string) []entities.Question {
	seg := Segment(text)
	if len(seg.Blocks) == 0 {
		return []entities.Question{}
	}

	questions := make([]entities.Question, 0, len(seg.Blocks))
	for _, block := range seg.Blocks {
		questions = append(questions, ParseBlock(block))
	}
	return questions
}

// ParseBlock extracts a single question from a block of text.
func ParseBlock(block string) entities.Question {
	var answer string
	if m := answerKey.FindStringSubmatch(block); m != nil {
		answer = m[1]
	}

	text := strings.TrimSpace(replaceFirst(answerLine, block, ""))

	var number string
	if loc := questionNumber.FindStringIndex(text); loc != nil {
		number = strings.TrimSpace(text[:loc[1]])
		text = strings.TrimSpace(text[loc[1]:])
	}

	var score string
	if m := questionScore.FindStringSubmatchIndex(text); m != nil {
		score = text[m[2]:m[3]]
		text = strings.TrimSpace(text[:m[0]] + text[m[1]:])
	}

	// An inline key such as "(AC)" wins over a trailing answer line.
	if m := bracketAnswer.FindStringSubmatchIndex(text); m != nil {
		answer = text[m[4]:m[5]]
		text = strings.TrimSpace(text[:m[0]] + text[m[2]:m[3]] + text[m[6]:m[7]] + text[m[1]:])
	}

	options := extractOptions(text)

	title := text
	if len(options) > 0 {
		if loc := optionMarker.FindStringIndex(text); loc != nil {
			title = strings.TrimSpace(text[:loc[0]])
		}
	}

	q := entities.Question{
		Number:  number,
		Score:   score,
		Title:   title,
		Options: canonicalOptions(options),
		Answer:  entities.CanonicalAnswer(answer),
	}
	q.ResetAnswerState()

	return q
}

// extractOptions scans "<letter><punct>?<text>" runs starting at the first option marker.
// Each run ends before the next marker, an answer marker, or the end of the text.
func extractOptions(text string) []entities.Option {
	var options []entities.Option

	pos := 0
	if loc := optionMarker.FindStringIndex(text); loc != nil {
		pos = loc[0]
	}

	seen := make(map[string]bool, len(entities.OptionLabels))
	for pos < len(text) {
		loc := optionLetter.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}

		label := strings.ToUpper(text[pos+loc[0] : pos+loc[1]])
		p := pos + loc[1]
		if r, size := utf8.DecodeRuneInString(text[p:]); r == '.' || r == '．' || r == '、' {
			p += size
		}

		start := skipSpace(text, p)
		end := len(text)
		if m := optionEnd.FindStringIndex(text[start:]); m != nil {
			end = start + m[0]
		}

		if !seen[label] {
			seen[label] = true
			options = append(options, entities.Option{
				Label: label,
				Text:  strings.TrimSpace(text[start:end]),
			})
		}

		if end <= pos {
			break
		}
		pos = end
	}

	return options
}

// canonicalOptions returns exactly one option per label in A-D order,
// filling labels the text did not provide with a placeholder.
func canonicalOptions(found []entities.Option) []entities.Option {
	byLabel := make(map[string]entities.Option, len(found))
	for _, opt := range found {
		if entities.IsValidLabel(opt.Label) {
			byLabel[opt.Label] = opt
		}
	}

	options := make([]entities.Option, 0, len(entities.OptionLabels))
	for _, label := range entities.OptionLabels {
		opt, ok := byLabel[label]
		if !ok {
			opt = entities.Option{Label: label, Text: entities.OptionPlaceholder}
		}
		options = append(options, opt)
	}
	return options
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
