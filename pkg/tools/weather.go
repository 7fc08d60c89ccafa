package tools

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/zen-systems/promptchain/pkg/adapter"
	"github.com/zen-systems/promptchain/pkg/schema"
)

type weatherScenario struct {
	TemperatureC float64
	WindSpeedKmh float64
	Conditions   string
}

var weatherScenarios = []weatherScenario{
	{TemperatureC: 22.5, WindSpeedKmh: 15.0, Conditions: "sunny"},
	{TemperatureC: 18.2, WindSpeedKmh: 8.5, Conditions: "partly_cloudy"},
	{TemperatureC: 12.7, WindSpeedKmh: 22.0, Conditions: "rainy"},
	{TemperatureC: 28.9, WindSpeedKmh: 5.0, Conditions: "clear"},
}

// GetWeather returns deterministic simulated conditions for coordinates.
func GetWeather(latitude, longitude float64) map[string]any {
	h := fnv.New32a()
	fmt.Fprintf(h, "%v_%v", latitude, longitude)
	scenario := weatherScenarios[int(h.Sum32())%len(weatherScenarios)]
	return map[string]any{
		"temperature_2m": scenario.TemperatureC,
		"wind_speed_10m": scenario.WindSpeedKmh,
		"conditions":     scenario.Conditions,
	}
}

// WeatherTool exposes the simulated weather lookup as a registrable tool.
func WeatherTool() Tool {
	return Tool{
		Def: adapter.ToolDef{
			Name:        "get_weather",
			Description: "Get current weather data including temperature in celsius and wind speed for provided coordinates.",
			Parameters: &schema.Shape{
				Name: "get_weather",
				Fields: []schema.Field{
					{Name: "latitude", Kind: schema.KindNumber, Required: true, Description: "Latitude coordinate"},
					{Name: "longitude", Kind: schema.KindNumber, Required: true, Description: "Longitude coordinate"},
				},
			},
		},
		Call: func(_ context.Context, args map[string]any) (map[string]any, error) {
			latitude, ok := args["latitude"].(float64)
			if !ok {
				return nil, fmt.Errorf("latitude is required")
			}
			longitude, ok := args["longitude"].(float64)
			if !ok {
				return nil, fmt.Errorf("longitude is required")
			}
			return GetWeather(latitude, longitude), nil
		},
	}
}
