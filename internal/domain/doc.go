// Package domain models current-weather observations for a list of cities.
//
// # Data Source
//
// Observations come from the OpenWeatherMap "current weather" endpoint
// (https://openweathermap.org/current), queried by city name with
// units=metric. Only four groups of the response are consumed:
//
//	main    temp (°C, float), humidity (%, int), pressure (hPa, int)
//	weather list of conditions; the first entry's description is kept
//	wind    speed (m/s, float)
//	clouds  all (cloud cover %, int)
//
// A response missing any of these keys is a per-city failure, never a
// partially-filled record.
//
// # Dataset
//
// A run produces one [WeatherRecord] per successfully fetched city, in input
// order. The dataset CSV uses the column order of [Columns]. The numeric
// columns are described by [Fields], which also carries the physical unit and
// plot color of each one.
package domain
