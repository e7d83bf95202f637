package engine

import (
	"fmt"
	"time"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/config"
)

// Rules are the exit thresholds applied to every position.
type Rules struct {
	BuyAmount           float64
	TP1Multiplier       float64
	TP1SellPercent      float64
	TP2Multiplier       float64
	TrailingStopPercent float64
	// TimeStop <= 0 disables the time stop.
	TimeStop          time.Duration
	MinSellOut        float64
	FeeRate           float64
	BreakevenMultiple float64
}

func DefaultRules() Rules {
	return Rules{
		BuyAmount:           0.08,
		TP1Multiplier:       2,
		TP1SellPercent:      80,
		TP2Multiplier:       5,
		TrailingStopPercent: 30,
		TimeStop:            60 * time.Minute,
		MinSellOut:          0.01,
		FeeRate:             0.006,
		BreakevenMultiple:   1.05,
	}
}

func RulesFromConfig(c config.TradeConfig) Rules {
	return Rules{
		BuyAmount:           c.BuyAmount,
		TP1Multiplier:       c.TP1Multiplier,
		TP1SellPercent:      c.TP1SellPercent,
		TP2Multiplier:       c.TP2Multiplier,
		TrailingStopPercent: c.TrailingStopPercent,
		TimeStop:            time.Duration(c.TimeStopMin * float64(time.Minute)),
		MinSellOut:          c.MinSellOut,
		FeeRate:             c.FeeRate,
		BreakevenMultiple:   c.BreakevenMultiple,
	}
}

func (r Rules) Validate() error {
	if r.BuyAmount <= 0 {
		return fmt.Errorf("Сумма покупки должна быть больше нуля: %v", r.BuyAmount)
	}
	if r.TP1Multiplier <= 0 {
		return fmt.Errorf("Множитель TP1 должен быть больше нуля: %v", r.TP1Multiplier)
	}
	if r.TP2Multiplier <= r.TP1Multiplier {
		return fmt.Errorf("Множитель TP2 (%v) должен быть выше TP1 (%v)", r.TP2Multiplier, r.TP1Multiplier)
	}
	if r.TP1SellPercent <= 0 || r.TP1SellPercent > 100 {
		return fmt.Errorf("Процент продажи TP1 вне диапазона (0, 100]: %v", r.TP1SellPercent)
	}
	if r.TrailingStopPercent < 0 || r.TrailingStopPercent >= 100 {
		return fmt.Errorf("Процент трейлинга вне диапазона [0, 100): %v", r.TrailingStopPercent)
	}
	if r.MinSellOut < 0 {
		return fmt.Errorf("Минимальная сумма продажи не может быть отрицательной: %v", r.MinSellOut)
	}
	if r.FeeRate < 0 || r.FeeRate >= 1 {
		return fmt.Errorf("Комиссия вне диапазона [0, 1): %v", r.FeeRate)
	}
	if r.BreakevenMultiple <= 0 {
		return fmt.Errorf("Множитель безубытка должен быть больше нуля: %v", r.BreakevenMultiple)
	}
	return nil
}
