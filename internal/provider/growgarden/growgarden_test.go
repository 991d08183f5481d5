package growgarden

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"fioso/internal/provider"
)

func golden(t *testing.T, name string, got any) {
	t.Helper()

	b, err := json.Marshal(got)
	require.NoError(t, err)
	var gotAny any
	require.NoError(t, json.Unmarshal(b, &gotAny))

	want, err := os.ReadFile(filepath.Join("testdata", name+".golden.json"))
	require.NoError(t, err)
	var wantAny any
	require.NoError(t, json.Unmarshal(want, &wantAny))

	if diff := cmp.Diff(wantAny, gotAny); diff != "" {
		t.Fatalf("%s mismatch (-want +got):\n%s", name, diff)
	}
}

func TestNormalizeStock_Golden(t *testing.T) {
	t.Parallel()

	// Arrange: load the recorded stock payload.
	payload, err := os.ReadFile(filepath.Join("testdata", "stock.json"))
	require.NoError(t, err)

	// Act: normalize it.
	got, ok := NormalizeStock(payload)

	// Assert: it matches the hand-computed record.
	require.True(t, ok)
	golden(t, "stock", got)
}

func TestNormalizeWeather_Golden(t *testing.T) {
	t.Parallel()

	payload, err := os.ReadFile(filepath.Join("testdata", "weather.json"))
	require.NoError(t, err)

	got, ok := NormalizeWeather(payload)
	require.True(t, ok)
	golden(t, "weather", got)
}

func TestNormalizeWeather_LastSeenObject(t *testing.T) {
	t.Parallel()

	got, ok := NormalizeWeather([]byte(`{"lastSeen":[{"name":"HEATWAVE"},{"name":"Carrot"}]}`))
	require.True(t, ok)
	require.Equal(t, []provider.Sighting{{"name": "HEATWAVE"}}, got)
}

func TestNormalizeStock_MissingListsAreEmpty(t *testing.T) {
	t.Parallel()

	got, ok := NormalizeStock([]byte(`{"seedsStock":[{"name":"Carrot","value":"7"}]}`))
	require.True(t, ok)

	stock := got.(provider.GardenStock)
	require.Equal(t, []provider.Item{{Name: "Carrot", Amount: 7}}, stock.Seed)
	require.Empty(t, stock.Gear)
	require.NotNil(t, stock.Gear)
	require.Equal(t, []provider.Sighting{}, stock.Weather)
}

func TestNormalizeStock_CosmeticAndGearRowsKeptVerbatim(t *testing.T) {
	t.Parallel()

	// Arrange: rows carry extra fields and a non-numeric value.
	payload := []byte(`{
		"seedsStock":[{"name":"Carrot","value":3}],
		"cosmeticsStock":[{"name":"Sign Crate","value":"N/A","image":"c.png"}],
		"gearStock":[{"name":"Trowel","value":1,"image":"t.png"}]
	}`)

	// Act
	got, ok := NormalizeStock(payload)

	// Assert: only seeds are renamed; the other rows come back as sent.
	require.True(t, ok)
	b, err := json.Marshal(got)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"seed":[{"name":"Carrot","amount":3}],
		"cosmetic":[{"name":"Sign Crate","value":"N/A","image":"c.png"}],
		"gear":[{"name":"Trowel","value":1,"image":"t.png"}],
		"eggs":[],
		"weather":[]
	}`, string(b))
}

func TestNormalizers_RejectMalformedInput(t *testing.T) {
	t.Parallel()

	inputs := map[string]string{
		"empty":          ``,
		"null":           `null`,
		"empty object":   `{}`,
		"array":          `[]`,
		"scalar":         `"stock"`,
		"list not array": `{"seedsStock":{"name":"Carrot"}}`,
		"bad seed value": `{"seedsStock":[{"name":"Carrot","value":"N/A"}]}`,
		"bad json":       `{"seedsStock":[`,
	}
	for name, in := range inputs {
		t.Run("stock/"+name, func(t *testing.T) {
			got, ok := NormalizeStock([]byte(in))
			require.False(t, ok)
			require.Nil(t, got)
		})
	}

	weather := map[string]string{
		"null":             `null`,
		"empty object":     `{}`,
		"object no list":   `{"current":"rain"}`,
		"lastSeen invalid": `{"lastSeen":"rain"}`,
		"scalar":           `7`,
	}
	for name, in := range weather {
		t.Run("weather/"+name, func(t *testing.T) {
			got, ok := NormalizeWeather([]byte(in))
			require.False(t, ok)
			require.Nil(t, got)
		})
	}
}
