package distress

import (
	"strings"
	"unicode"
)

// Level 表示检测到的危机程度。
type Level int

const (
	None Level = iota
	Elevated
	Urgent
)

func (l Level) String() string {
	switch l {
	case Elevated:
		return "elevated"
	case Urgent:
		return "urgent"
	default:
		return "none"
	}
}

// Signal 给出检测结果以及命中的关键词。
type Signal struct {
	Level   Level
	Score   int
	Matches []string
}

// Notify 表示界面是否应展示求助提示。单个中度信号多为普通话题（如 "midlife crisis"），不提示。
func (s Signal) Notify() bool {
	return s.Level == Urgent
}

var keywordBuckets = map[Level][]string{
	Urgent: {
		"kill myself", "end my life", "suicide", "suicidal", "want to die", "hurt myself",
		"harm myself", "self-harm", "self harm", "overdose", "no reason to live", "better off dead",
		"cut myself", "自杀", "不想活", "轻生", "结束生命", "伤害自己",
	},
	Elevated: {
		"hopeless", "can't go on", "cannot go on", "emergency", "crisis", "panic attack",
		"hurt someone", "harm others", "abuse", "unsafe", "绝望", "撑不下去", "崩溃",
	},
}

var weights = map[Level]int{
	Urgent:   5,
	Elevated: 2,
}

// Analyze 扫描一条用户消息，返回是否需要展示危机求助信息。
func Analyze(text string) Signal {
	normalized := normalize(text)
	if normalized == "" {
		return Signal{Level: None}
	}

	signal := Signal{Level: None}
	for _, level := range []Level{Urgent, Elevated} {
		for _, word := range keywordBuckets[level] {
			if strings.Contains(normalized, word) {
				signal.Score += weights[level]
				signal.Matches = append(signal.Matches, word)
				if level > signal.Level {
					signal.Level = level
				}
			}
		}
	}

	// 至少两个中度信号叠加视为紧急。
	if signal.Level == Elevated && signal.Score >= 2*weights[Elevated] {
		signal.Level = Urgent
	}
	return signal
}

func normalize(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	lowered = strings.ReplaceAll(lowered, "’", "'")
	return strings.Join(strings.FieldsFunc(lowered, func(r rune) bool {
		return unicode.IsSpace(r)
	}), " ")
}
