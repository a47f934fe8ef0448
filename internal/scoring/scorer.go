package scoring

import (
	"math"

	"wakeup-checker/internal/types"
)

const (
	MaxScore = 10.0
	MinScore = 0.0
)

// Rule 评分规则：条件成立时扣除 Penalty 并记录 Code
type Rule struct {
	Name    string
	Code    types.IssueCode
	Penalty float64
	Applies func(f types.FeatureSet) bool
}

// defaultRules 按求值顺序排列；三个亮度档位区间互斥
var defaultRules = []Rule{
	{Name: "tempo-fast", Code: types.TempoTooFast, Penalty: 2,
		Applies: func(f types.FeatureSet) bool { return f.BPM > 130 }},
	{Name: "tempo-slow", Code: types.TempoTooSlow, Penalty: 2,
		Applies: func(f types.FeatureSet) bool { return f.BPM < 50 }},
	{Name: "brightness-high", Code: types.SoundTooBright, Penalty: 3,
		Applies: func(f types.FeatureSet) bool { return f.SpectralCentroid > 3500 }},
	{Name: "brightness-mid", Code: types.SoundTooBright, Penalty: 2,
		Applies: func(f types.FeatureSet) bool { return f.SpectralCentroid > 3000 && f.SpectralCentroid <= 3500 }},
	{Name: "brightness-low", Code: types.SoundTooBright, Penalty: 1,
		Applies: func(f types.FeatureSet) bool { return f.SpectralCentroid > 2500 && f.SpectralCentroid <= 3000 }},
	{Name: "loudness", Code: types.VolumeTooHigh, Penalty: 2,
		Applies: func(f types.FeatureSet) bool { return f.RMSEnergy > 0.18 }},
	{Name: "noisiness", Code: types.SoundTooNoisy, Penalty: 2,
		Applies: func(f types.FeatureSet) bool { return f.ZCR > 0.08 }},
	{Name: "intensity", Code: types.RhythmTooIntense, Penalty: 2,
		Applies: func(f types.FeatureSet) bool { return f.OnsetStrength > 1.2 }},
}

// DefaultRules 返回默认规则表的副本
func DefaultRules() []Rule {
	rules := make([]Rule, len(defaultRules))
	copy(rules, defaultRules)
	return rules
}

// Scorer 按顺序对规则表求值的评分器
type Scorer struct {
	rules []Rule
}

// NewScorer 使用给定规则表创建评分器，rules 为空时使用默认规则
func NewScorer(rules []Rule) *Scorer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Scorer{rules: rules}
}

// Score 从满分开始依次扣分，结果截断到 [0, 10] 并保留一位小数。
// 没有规则触发时问题列表为 [GOOD_BALANCE]。
func (s *Scorer) Score(f types.FeatureSet) (float64, []types.IssueCode) {
	score := MaxScore
	var issues []types.IssueCode

	for _, rule := range s.rules {
		if rule.Applies(f) {
			score -= rule.Penalty
			issues = append(issues, rule.Code)
		}
	}

	score = math.Max(MinScore, math.Min(MaxScore, score))
	score = math.Round(score*10) / 10

	if len(issues) == 0 {
		issues = []types.IssueCode{types.GoodBalance}
	}
	return score, issues
}

var defaultScorer = NewScorer(nil)

// Calculate 使用默认规则对五个特征评分
func Calculate(bpm, centroid, rms, zcr, onset float64) (float64, []types.IssueCode) {
	return defaultScorer.Score(types.FeatureSet{
		BPM:              bpm,
		SpectralCentroid: centroid,
		RMSEnergy:        rms,
		ZCR:              zcr,
		OnsetStrength:    onset,
	})
}

var descriptions = map[types.IssueCode]string{
	types.TempoTooFast:     "节奏过快，容易让人惊醒",
	types.TempoTooSlow:     "节奏过慢，难以唤醒",
	types.SoundTooBright:   "音色过于明亮刺耳",
	types.VolumeTooHigh:    "整体音量过大",
	types.SoundTooNoisy:    "声音嘈杂或失真较多",
	types.RhythmTooIntense: "鼓点冲击感过强",
	types.GoodBalance:      "各项指标均衡，适合作为闹钟",
}

// Describe 返回问题代码的说明文字
func Describe(code types.IssueCode) string {
	if desc, ok := descriptions[code]; ok {
		return desc
	}
	return string(code)
}
