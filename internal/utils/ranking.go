package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity        float64 // 时间重力
	WeightUpvote   float64
	WeightDownvote float64
	ScaleFactor    float64 // 放大系数
}

var DefaultRank = RankConfig{
	Gravity:        1.5,
	WeightUpvote:   1.0,
	WeightDownvote: 1.5,
	ScaleFactor:    100.0,
}

// HotRank scores an item for "hot" ordering. Weighted votes are log-smoothed
// and decay with age, so the value is only meaningful at the instant now.
func HotRank(cfg RankConfig, upvotes, downvotes int, createdAt, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}

	weighted := float64(upvotes)*cfg.WeightUpvote - float64(downvotes)*cfg.WeightDownvote
	if weighted < 0 {
		weighted = 0 // log10 下限
	}

	numerator := math.Log10(weighted+1) * cfg.ScaleFactor
	return numerator / math.Pow(hours+2, cfg.Gravity)
}
