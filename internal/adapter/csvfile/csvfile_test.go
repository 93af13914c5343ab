package csvfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/city-weather-report/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var sampleRecords = []domain.WeatherRecord{
	{City: "London", Temperature: 14.62, Humidity: 76, Pressure: 1012, Weather: "broken clouds", WindSpeed: 4.63, Cloudiness: 75},
	{City: "Tokyo", Temperature: 21, Humidity: 60, Pressure: 1018, Weather: "clear sky", WindSpeed: 2.1, Cloudiness: 0},
	{City: "Washington, D.C.", Temperature: -3.5, Humidity: 45, Pressure: 1030, Weather: "light snow", WindSpeed: 6, Cloudiness: 100},
}

// --- ReadCities ---

func TestReadCities_PreservesOrderAndDuplicates(t *testing.T) {
	path := writeFile(t, "cities.csv", "City\nLondon\nTokyo\nLondon\n\"Washington, D.C.\"\n")

	cities, err := ReadCities(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"London", "Tokyo", "London", "Washington, D.C."}, cities)
}

func TestReadCities_CityNotFirstColumn(t *testing.T) {
	path := writeFile(t, "cities.csv", "Country,City,Population\nJP,Tokyo,14000000\nFR,Paris,2100000\n")

	cities, err := ReadCities(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tokyo", "Paris"}, cities)
}

func TestReadCities_NoTrimming(t *testing.T) {
	path := writeFile(t, "cities.csv", "City\n New York\n")

	cities, err := ReadCities(path)
	require.NoError(t, err)
	assert.Equal(t, []string{" New York"}, cities)
}

func TestReadCities_HeaderOnly(t *testing.T) {
	path := writeFile(t, "cities.csv", "City\n")

	cities, err := ReadCities(path)
	require.NoError(t, err)
	assert.Empty(t, cities)
}

func TestReadCities_MissingFile(t *testing.T) {
	_, err := ReadCities(filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, domain.ErrInputNotFound)
}

func TestReadCities_MissingColumn(t *testing.T) {
	path := writeFile(t, "cities.csv", "Town\nLondon\n")

	_, err := ReadCities(path)
	require.ErrorIs(t, err, domain.ErrMalformedInput)
	assert.Contains(t, err.Error(), `"City"`)
}

func TestReadCities_EmptyFile(t *testing.T) {
	path := writeFile(t, "cities.csv", "")

	_, err := ReadCities(path)
	require.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestReadCities_ShortRow(t *testing.T) {
	path := writeFile(t, "cities.csv", "Country,City\nJP,Tokyo\nFR\n")

	_, err := ReadCities(path)
	require.ErrorIs(t, err, domain.ErrMalformedInput)
	assert.Contains(t, err.Error(), "line 3")
}

// --- WriteDataset ---

func TestWriteDataset_ColumnOrderAndFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_data.csv")

	require.NoError(t, WriteDataset(path, sampleRecords))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "City,Temperature,Humidity,Pressure,Weather,Wind Speed,Cloudiness\n" +
		"London,14.62,76,1012,broken clouds,4.63,75\n" +
		"Tokyo,21,60,1018,clear sky,2.1,0\n" +
		"\"Washington, D.C.\",-3.5,45,1030,light snow,6,100\n"
	assert.Equal(t, want, string(data))
}

func TestWriteDataset_EmptyWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_data.csv")

	require.NoError(t, WriteDataset(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "City,Temperature,Humidity,Pressure,Weather,Wind Speed,Cloudiness\n", string(data))
}

func TestWriteDataset_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "runs", "weather_data.csv")

	require.NoError(t, WriteDataset(path, sampleRecords[:1]))
	assert.FileExists(t, path)
}

func TestWriteDataset_NeverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_data.csv")
	require.NoError(t, WriteDataset(path, sampleRecords))

	before, err := os.ReadFile(path)
	require.NoError(t, err)
	infoBefore, err := os.Stat(path)
	require.NoError(t, err)

	err = WriteDataset(path, sampleRecords[:1])
	require.ErrorIs(t, err, domain.ErrOutputConflict)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	infoAfter, err := os.Stat(path)
	require.NoError(t, err)

	assert.Equal(t, before, after, "second write must leave the file byte-identical")
	assert.Equal(t, infoBefore.ModTime(), infoAfter.ModTime())
}

func TestWriteDataset_ForeignFileUntouched(t *testing.T) {
	path := writeFile(t, "weather_data.csv", "not,a,dataset\n")

	err := WriteDataset(path, sampleRecords)
	require.ErrorIs(t, err, domain.ErrOutputConflict)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not,a,dataset\n", string(data))
}

// --- ReadDataset ---

func TestReadDataset_ReadsWhatWasWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_data.csv")
	require.NoError(t, WriteDataset(path, sampleRecords))

	got, err := ReadDataset(path)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleRecords, got); diff != "" {
		t.Errorf("dataset mismatch (-want +got):\n%s", diff)
	}
}

func TestReadDataset_ColumnsByName(t *testing.T) {
	path := writeFile(t, "weather_data.csv",
		"Cloudiness,City,Weather,Temperature,Wind Speed,Pressure,Humidity\n"+
			"40,Oslo,overcast clouds,4.5,3.25,1009,81.0\n")

	got, err := ReadDataset(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.WeatherRecord{
		City: "Oslo", Temperature: 4.5, Humidity: 81, Pressure: 1009,
		Weather: "overcast clouds", WindSpeed: 3.25, Cloudiness: 40,
	}, got[0])
}

func TestReadDataset_ZeroByteFile(t *testing.T) {
	path := writeFile(t, "weather_data.csv", "")

	got, err := ReadDataset(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadDataset_HeaderOnly(t *testing.T) {
	path := writeFile(t, "weather_data.csv", "City,Temperature,Humidity,Pressure,Weather,Wind Speed,Cloudiness\n")

	got, err := ReadDataset(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadDataset_MissingColumn(t *testing.T) {
	path := writeFile(t, "weather_data.csv", "City,Temperature,Humidity,Pressure,Weather,Cloudiness\nOslo,1,2,3,x,4\n")

	_, err := ReadDataset(path)
	require.ErrorIs(t, err, domain.ErrMalformedInput)
	assert.Contains(t, err.Error(), `"Wind Speed"`)
}

func TestReadDataset_BadNumber(t *testing.T) {
	path := writeFile(t, "weather_data.csv",
		"City,Temperature,Humidity,Pressure,Weather,Wind Speed,Cloudiness\n"+
			"Oslo,4.5,81,1009,rain,3,40\n"+
			"Rome,warm,50,1015,clear,1,0\n")

	_, err := ReadDataset(path)
	require.ErrorIs(t, err, domain.ErrMalformedInput)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), `"Temperature"`)
}

func TestReadDataset_NonFiniteNumber(t *testing.T) {
	tests := []struct {
		name string
		row  string
		col  string
	}{
		{"nan temperature", "Oslo,NaN,81,1009,rain,3,40", `"Temperature"`},
		{"inf wind speed", "Oslo,4.5,81,1009,rain,+Inf,40", `"Wind Speed"`},
		{"negative infinity", "Oslo,-infinity,81,1009,rain,3,40", `"Temperature"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "weather_data.csv",
				"City,Temperature,Humidity,Pressure,Weather,Wind Speed,Cloudiness\n"+tt.row+"\n")

			_, err := ReadDataset(path)
			require.ErrorIs(t, err, domain.ErrMalformedInput)
			assert.Contains(t, err.Error(), tt.col)
			assert.Contains(t, err.Error(), "not a finite number")
		})
	}
}

func TestReadDataset_FractionalInteger(t *testing.T) {
	path := writeFile(t, "weather_data.csv",
		"City,Temperature,Humidity,Pressure,Weather,Wind Speed,Cloudiness\n"+
			"Oslo,4.5,81.5,1009,rain,3,40\n")

	_, err := ReadDataset(path)
	require.ErrorIs(t, err, domain.ErrMalformedInput)
	assert.Contains(t, err.Error(), `"Humidity"`)
}

func TestReadDataset_MissingFile(t *testing.T) {
	_, err := ReadDataset(filepath.Join(t.TempDir(), "weather_data.csv"))
	require.ErrorIs(t, err, domain.ErrInputNotFound)
}
