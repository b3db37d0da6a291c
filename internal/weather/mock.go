package weather

import (
	"context"
	"time"
)

// Mock returns the same partly cloudy day for every location.
type Mock struct {
	Now func() time.Time
}

func (m Mock) Current(ctx context.Context, city string) (*Conditions, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return &Conditions{
		City:        city,
		Temperature: 22,
		Humidity:    65,
		WindSpeed:   10,
		Description: "partly cloudy",
		Forecast: []Day{
			{Day: "today", Temp: 22, Condition: "partly cloudy"},
			{Day: "tomorrow", Temp: 25, Condition: "sunny"},
			{Day: "day_after", Temp: 20, Condition: "rainy"},
		},
		Timestamp: now(),
	}, nil
}
