package news

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LexiconEntry 是词典中单个词条的情感权重。
type LexiconEntry struct {
	Polarity     float64 `yaml:"polarity"`
	Subjectivity float64 `yaml:"subjectivity"`
}

type lexiconFile struct {
	Words    map[string]LexiconEntry `yaml:"words"`
	Negators []string                `yaml:"negators"`
}

// LexiconScorer 是内置的词典打分器：对命中的词条取均值，
// 前一个 token 为否定词时极性取反。
// 没有任何命中时返回 (0, 0)（中性且客观）。
type LexiconScorer struct {
	words    map[string]LexiconEntry
	negators map[string]struct{}
}

// NewLexiconScorer 从 YAML 词典文件构建打分器。
func NewLexiconScorer(path string) (*LexiconScorer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取词典失败: %w", err)
	}
	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("解析词典失败 (%s): %w", path, err)
	}
	if len(file.Words) == 0 {
		return nil, fmt.Errorf("词典 %s 没有词条", path)
	}
	return NewLexiconScorerFromEntries(file.Words, file.Negators), nil
}

// NewLexiconScorerFromEntries 直接由词条构建（主要用于测试）。
func NewLexiconScorerFromEntries(words map[string]LexiconEntry, negators []string) *LexiconScorer {
	normalized := make(map[string]LexiconEntry, len(words))
	for w, e := range words {
		normalized[strings.ToLower(strings.TrimSpace(w))] = e
	}
	negSet := make(map[string]struct{}, len(negators))
	for _, n := range negators {
		negSet[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	return &LexiconScorer{words: normalized, negators: negSet}
}

// Score 对文本打分。
func (s *LexiconScorer) Score(text string) (float64, float64) {
	tokens := tokenize(text)
	sumPol, sumSubj := 0.0, 0.0
	hits := 0
	for i, tok := range tokens {
		entry, ok := s.words[tok]
		if !ok {
			continue
		}
		polarity := entry.Polarity
		if i > 0 {
			if _, negated := s.negators[tokens[i-1]]; negated {
				polarity = -polarity
			}
		}
		sumPol += polarity
		sumSubj += entry.Subjectivity
		hits++
	}
	if hits == 0 {
		return 0, 0
	}
	return sumPol / float64(hits), sumSubj / float64(hits)
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
