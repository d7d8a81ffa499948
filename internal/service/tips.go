package service

import (
	"context"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/storage"
)

const tipsLimit = 20

// DefaultTips are written to an empty tip collection on first read.
var DefaultTips = []internal.Tip{
	{Title: "Delay the urge", Body: "Wait 10 minutes and breathe slowly."},
	{Title: "Swap the habit", Body: "Chew sugar-free gum or carrots."},
	{Title: "Know your triggers", Body: "List situations that spark cravings and plan alternatives."},
	{Title: "Move your body", Body: "A brisk 5-minute walk can reduce cravings."},
}

// FallbackTips are served when there is no store to read from.
var FallbackTips = []internal.Tip{
	{Title: "Stay hydrated", Body: "Sip water when a craving hits."},
	{Title: "Change routines", Body: "Avoid triggers like coffee breaks with snus."},
}

// ListTips seeds the defaults into an empty collection, then returns up to
// twenty stored tips.
func ListTips(ctx context.Context, tips storage.TipRepository) ([]internal.Tip, error) {
	if _, err := EnsureTips(ctx, tips); err != nil {
		return nil, err
	}
	return tips.ListTips(ctx, tipsLimit)
}

// EnsureTips seeds DefaultTips when no tip is stored and reports whether it did.
func EnsureTips(ctx context.Context, tips storage.TipRepository) (bool, error) {
	n, err := tips.CountTips(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := tips.SeedTips(ctx, DefaultTips); err != nil {
		return false, err
	}
	return true, nil
}
