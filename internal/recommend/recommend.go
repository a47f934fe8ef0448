package recommend

import (
	"math/rand/v2"
	"strings"
)

// SampleSize 未指定风格时随机返回的数量
const SampleSize = 3

// Recommendation 推荐的闹钟曲目
type Recommendation struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Genre  string `json:"genre"`
	Reason string `json:"reason"`
	URL    string `json:"url"`
}

var catalog = []Recommendation{
	{Title: "Morning Breeze", Artist: "Nature Sounds", Genre: "Ambient", Reason: "Gentle start", URL: "https://www.youtube.com/results?search_query=Morning+Breeze+Nature+Sounds"},
	{Title: "Sunrise", Artist: "Acoustic Band", Genre: "Acoustic", Reason: "Positive vibes", URL: "https://www.youtube.com/results?search_query=Sunrise+Acoustic+Band"},
	{Title: "Soft Piano", Artist: "Classical Masters", Genre: "Classical", Reason: "Calming", URL: "https://www.youtube.com/results?search_query=Soft+Piano+Classical+Masters"},
	{Title: "Upbeat Funk", Artist: "Groove Makers", Genre: "Funk", Reason: "Energetic wake up", URL: "https://www.youtube.com/results?search_query=Upbeat+Funk+Groove+Makers"},
	{Title: "Lo-Fi Study", Artist: "Chill Beats", Genre: "Lo-Fi", Reason: "Relaxed rhythm", URL: "https://www.youtube.com/results?search_query=Lo-Fi+Study+Chill+Beats"},
}

// Recommender 基于静态曲目表的推荐
type Recommender struct {
	shuffle func(n int, swap func(i, j int))
}

// NewRecommender 创建推荐器，shuffle 为空时使用全局随机源
func NewRecommender(shuffle func(n int, swap func(i, j int))) *Recommender {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	return &Recommender{shuffle: shuffle}
}

// Catalog 返回全部曲目的副本
func Catalog() []Recommendation {
	out := make([]Recommendation, len(catalog))
	copy(out, catalog)
	return out
}

// Recommend 指定风格时按风格过滤（不区分大小写），无匹配则返回全部；
// 未指定风格时随机返回 SampleSize 首。
func (r *Recommender) Recommend(genre string) []Recommendation {
	genre = strings.TrimSpace(genre)
	if genre != "" {
		var filtered []Recommendation
		for _, rec := range catalog {
			if strings.EqualFold(rec.Genre, genre) {
				filtered = append(filtered, rec)
			}
		}
		if len(filtered) > 0 {
			return filtered
		}
		return Catalog()
	}

	picks := Catalog()
	r.shuffle(len(picks), func(i, j int) {
		picks[i], picks[j] = picks[j], picks[i]
	})
	return picks[:SampleSize]
}
