// Package ai writes ride descriptions and safety tips with a text-generation
// model. Every path returns usable copy: when the model cannot be reached the
// caller gets a deterministic fallback built from the ride itself.
package ai

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mroshb/apex_bot/internal/models"
)

const (
	defaultDescription = "A great ride awaits!"
	defaultTips        = "Ride safe!"
	fallbackTips       = "Full tank of gas before KSU!"
)

// RidePrompt carries the ride attributes the model writes about.
type RidePrompt struct {
	Title     string
	Level     models.Level
	Distance  float64
	Elevation int
	Terrain   models.Terrain
}

// RideCopy is the generated listing text.
type RideCopy struct {
	Description string `json:"description"`
	Tips        string `json:"tips"`
}

// Provider generates ride copy. Implementations never fail; they fall back
// instead.
type Provider interface {
	Generate(ctx context.Context, p RidePrompt) RideCopy
}

// Fallback is the copy used when no model answer is available.
func Fallback(p RidePrompt) RideCopy {
	return RideCopy{
		Description: fmt.Sprintf("Get ready for the %s! This %s mile run will test your skills with %dft of elevation on %s terrain.",
			p.Title, formatMiles(p.Distance), p.Elevation, p.Terrain),
		Tips: fallbackTips,
	}
}

// FallbackProvider always answers with Fallback. It is used when no API key
// is configured.
type FallbackProvider struct{}

func (FallbackProvider) Generate(_ context.Context, p RidePrompt) RideCopy {
	return Fallback(p)
}

func buildPrompt(p RidePrompt) string {
	return fmt.Sprintf(`I am creating a motorcycle group ride listing.
Title: %s
Group Level: %s (where A is aggressive sport riding, D is relaxed cruising)
Distance: %s miles
Elevation Gain: %d feet
Terrain Type: %s

Please generate two things in a JSON format:
1. "description": An exciting, energetic paragraph description of the ride (approx 40-60 words). Mention the %s (e.g., twisties, straights, off-road) specifically. Use motorcycling terminology (e.g., KSU, stagger formation, lean angle, ADV).
2. "tips": A short, punchy safety tip or gear recommendation specific to this ride profile (e.g., wear leathers, bring rain gear, check chain).

Return ONLY raw JSON.`,
		p.Title, p.Level, formatMiles(p.Distance), p.Elevation, p.Terrain, p.Terrain)
}

func formatMiles(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}
