// Package report renders the fixed-format text reports and writes them to
// timestamped files.
package report

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rahul/agentladder/internal/dino"
	"github.com/rahul/agentladder/internal/weather"
)

var title = cases.Title(language.English)

// Weather renders the weather report. aiSummary is empty when the
// enhancement call failed, which selects the basic layout.
func Weather(c *weather.Conditions, aiSummary string) string {
	var b strings.Builder
	b.WriteString("WEATHER REPORT\n")
	b.WriteString("==============\n")
	fmt.Fprintf(&b, "City: %s, %s\n", c.City, c.Country)
	fmt.Fprintf(&b, "Date: %s\n\n", c.Timestamp.Format(time.RFC3339))
	b.WriteString("Current Conditions:\n")
	fmt.Fprintf(&b, "- Temperature: %g°C\n", c.Temperature)
	fmt.Fprintf(&b, "- Feels Like: %g°C\n", c.FeelsLike)
	fmt.Fprintf(&b, "- Humidity: %g%%\n", c.Humidity)
	fmt.Fprintf(&b, "- Pressure: %g hPa\n", c.Pressure)
	fmt.Fprintf(&b, "- Description: %s\n", title.String(c.Description))
	fmt.Fprintf(&b, "- Wind Speed: %g m/s\n\n", c.WindSpeed)

	if s := strings.TrimSpace(aiSummary); s != "" {
		b.WriteString("AI Weather Summary:\n")
		b.WriteString(s)
		b.WriteString("\n\n")
		b.WriteString("Report generated by Fixed Automation Weather Agent (Enhanced with Ollama)\n")
	} else {
		b.WriteString("Report generated by Fixed Automation Weather Agent\n")
	}
	return b.String()
}

// WeatherPrompt asks the model for a short friendly summary of c.
func WeatherPrompt(c *weather.Conditions) string {
	return fmt.Sprintf(`Based on this weather data, provide a brief, friendly weather summary:

Temperature: %g°C
Feels Like: %g°C
Humidity: %g%%
Pressure: %g hPa
Description: %s
Wind Speed: %g m/s
Location: %s, %s

Provide a brief, friendly weather summary in 2-3 sentences.`,
		c.Temperature, c.FeelsLike, c.Humidity, c.Pressure, c.Description, c.WindSpeed, c.City, c.Country)
}

func Dino(f *dino.Fact, aiSummary string) string {
	var b strings.Builder
	b.WriteString("DINOSAUR REPORT\n")
	b.WriteString("===============\n")
	fmt.Fprintf(&b, "Name: %s\n", f.Name)
	fmt.Fprintf(&b, "Date: %s\n\n", f.Timestamp.Format(time.RFC3339))
	b.WriteString("Dinosaur Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", f.Name)
	fmt.Fprintf(&b, "- Description: %s\n", f.Description)
	fmt.Fprintf(&b, "- Period: %s\n", f.Period)
	fmt.Fprintf(&b, "- Diet: %s\n", f.Diet)
	fmt.Fprintf(&b, "- Length: %s\n", f.Length)
	fmt.Fprintf(&b, "- Weight: %s\n\n", f.Weight)

	if s := strings.TrimSpace(aiSummary); s != "" {
		b.WriteString("AI Dinosaur Summary:\n")
		b.WriteString(s)
		b.WriteString("\n\n")
		b.WriteString("Report generated by Fixed Automation Dinosaur Agent (Enhanced with Ollama)\n")
	} else {
		b.WriteString("Report generated by Fixed Automation Dinosaur Agent\n")
	}
	return b.String()
}

func DinoPrompt(f *dino.Fact) string {
	return fmt.Sprintf(`Based on this dinosaur data, provide a brief, friendly dinosaur summary:

Name: %s
Description: %s

Provide a brief, friendly dinosaur summary in 2-3 sentences.`, f.Name, f.Description)
}
