package remote

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResizeRenderURL(t *testing.T) {
	url := "https://cdn.example.com/30DAY-AvatarHeadshot-ABC-Png/150/150/AvatarHeadshot/Png/noFilter"
	resized := resizeRenderURL(url, "500", "500")
	assert.Equal(t, "https://cdn.example.com/30DAY-AvatarHeadshot-ABC-Png/500/500/AvatarHeadshot/Png/noFilter", resized)

	// Too short to carry size segments, returned untouched.
	assert.Equal(t, "https://x/y", resizeRenderURL("https://x/y", "500", "500"))
}

func TestRenderPayload_MergesSimulatedAssets(t *testing.T) {
	wearing := map[string]any{
		"assets": []any{
			map[string]any{"id": float64(10)},
			map[string]any{"id": float64(20)},
		},
		"bodyColors": map[string]any{
			"headColorId": float64(194),
		},
		"scales":           map[string]any{"height": 1.0},
		"playerAvatarType": "R15",
	}
	rules := map[string]any{
		"bodyColorsPalette": []any{
			map[string]any{"brickColorId": float64(194), "hexColor": "#A3A2A5"},
		},
	}

	payload := renderPayload(wearing, []int64{20, 30}, rules, true, "150x150")

	def := payload["avatarDefinition"].(map[string]any)
	assets := def["assets"].([]map[string]any)
	require.Len(t, assets, 3, "already worn assets must not duplicate")
	assert.Equal(t, int64(30), assets[2]["id"])

	colors := def["bodyColors"].(map[string]any)
	assert.Equal(t, "#A3A2A5", colors["headColor"])

	cfg := payload["thumbnailConfig"].(map[string]any)
	assert.Equal(t, "2d", cfg["thumbnailType"])
}

func TestCropHeadshot(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	out, err := cropHeadshot(buf.Bytes())
	require.NoError(t, err)

	decoded, err := webp.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	// 34%..66% of 100px wide, square.
	bounds := decoded.Bounds()
	assert.Equal(t, 32, bounds.Dx())
	assert.Equal(t, 32, bounds.Dy())
}
