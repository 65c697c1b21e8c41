// Package score derives ranking scores from a single token snapshot. Every
// function here is pure: same snapshot and clock in, same score out.
package score

import (
	"math"
	"time"

	"github.com/solradar/solradar/internal/domain"
)

// Buy rates how attractive a token looks for entry, 0-100. Additive threshold
// ladder over volume/mcap ratio, short-term buy pressure, bounded momentum,
// a liquidity sweet spot, young-and-active pairs and bonding-curve progress.
func Buy(s *domain.TokenSnapshot, now time.Time) int {
	score := 50

	if s.MarketCap > 0 {
		switch ratio := s.Volume1h / s.MarketCap; {
		case ratio > 0.1:
			score += 15
		case ratio > 0.05:
			score += 10
		case ratio > 0.02:
			score += 5
		}
	}

	switch br := s.BuyRatio5m(); {
	case br > 0.7:
		score += 15
	case br > 0.6:
		score += 10
	case br > 0.55:
		score += 5
	}

	// Bounded momentum: reward a move that has started but not already run.
	switch {
	case s.PriceChange5m > 0 && s.PriceChange5m <= 20:
		score += 10
	case s.PriceChange5m > 20 && s.PriceChange5m <= 50:
		score += 5
	}

	if s.LiquidityUSD >= 10_000 && s.LiquidityUSD <= 200_000 {
		score += 10
	}

	if age := s.AgeHours(now); age >= 0 && age < 24 && s.Buys5m+s.Sells5m > 10 {
		score += 10
	}

	if s.PreMigration {
		switch {
		case s.BondingCurveProgress > 70:
			score += 10
		case s.BondingCurveProgress > 40:
			score += 5
		}
	}

	return clamp(score)
}

// Sell rates exit pressure, 0-100: sharp short-term drops, heavy recent selling,
// evaporating liquidity and mean-reversion risk after an extreme prior pump.
func Sell(s *domain.TokenSnapshot) int {
	score := 20

	switch {
	case s.PriceChange5m < -10:
		score += 25
	case s.PriceChange5m < -5:
		score += 15
	}

	switch sr := s.SellRatio5m(); {
	case sr > 0.65:
		score += 20
	case sr > 0.55:
		score += 10
	}

	switch {
	case s.LiquidityUSD < 5_000:
		score += 20
	case s.LiquidityUSD < 10_000:
		score += 10
	}

	switch {
	case s.PriceChange24h > 500:
		score += 15
	case s.PriceChange24h > 200:
		score += 10
	}

	return clamp(score)
}

// Risk rates how dangerous a token is to hold, 0-100, higher is worse. Queries
// sort this ascending.
func Risk(s *domain.TokenSnapshot, now time.Time) int {
	score := 20

	switch {
	case s.LiquidityUSD < 1_000:
		score += 30
	case s.LiquidityUSD < 10_000:
		score += 20
	case s.LiquidityUSD < 50_000:
		score += 10
	}

	switch age := s.AgeHours(now); {
	case age >= 0 && age < 1:
		score += 20
	case age >= 0 && age < 24:
		score += 10
	}

	if s.SellRatio5m() > 0.6 {
		score += 15
	}

	if s.LiquidityUSD > 0 {
		switch ratio := s.MarketCap / s.LiquidityUSD; {
		case ratio > 100:
			score += 15
		case ratio > 50:
			score += 10
		}
	}

	if s.PreMigration {
		score += 10
	}

	return clamp(score)
}

// Momentum rates short-term acceleration, 0-100: 5m price thrust, volume surge
// against the 24h baseline and a dense 5m transaction flow.
func Momentum(s *domain.TokenSnapshot) int {
	score := 20

	switch {
	case s.PriceChange5m > 10:
		score += 25
	case s.PriceChange5m > 5:
		score += 15
	case s.PriceChange5m > 2:
		score += 8
	}

	// Acceleration: the 5m move outpaces the hourly trend pro-rated to 5m.
	if s.PriceChange5m > s.PriceChange1h/12 && s.PriceChange5m > 0 {
		score += 10
	}

	if s.Volume24h > 0 {
		hourly := s.Volume24h / 24
		switch {
		case s.Volume1h > hourly*3:
			score += 20
		case s.Volume1h > hourly*2:
			score += 10
		}
	}

	switch tx := s.Buys5m + s.Sells5m; {
	case tx >= 20:
		score += 15
	case tx >= 10:
		score += 8
	}

	return clamp(score)
}

// Trending is an unbounded weighted sum used only for relative ordering. Recent
// volume and transaction flow dominate; young pairs and buy-heavy flow get a
// bonus, and absolute price movement in either direction counts.
func Trending(s *domain.TokenSnapshot, now time.Time) float64 {
	score := s.Volume5m*2 +
		s.Volume1h*0.5 +
		s.Volume24h*0.05 +
		float64(s.Buys5m+s.Sells5m)*100 +
		float64(s.Buys1h+s.Sells1h)*20 +
		math.Abs(s.PriceChange5m)*50

	switch age := s.AgeHours(now); {
	case age >= 0 && age < 1:
		score += 5000
	case age >= 0 && age < 6:
		score += 2000
	case age >= 0 && age < 24:
		score += 500
	}

	if br := s.BuyRatio5m(); br > 0.6 {
		score += br * 1000
	}

	return score
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
