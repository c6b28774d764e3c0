package remote

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/xolodev/xolo-go/pkg/config"
)

// RenderComposite asks the platform renderer for an avatar image of the
// simulated equipped set and returns the image bytes. The render service is
// eventually consistent, so the request is retried until it reports
// Completed or the retry budget runs out. When fullAvatar is false a
// headshot is cropped out of the full render and re-encoded as lossless
// webp, matching the dimensions of the thumbnails being replaced.
//
// The simulated set is the real avatar definition plus every simulated asset
// not already present, so real clothing stays visible under fake gear.
func (c *Client) RenderComposite(ctx context.Context, wearing map[string]any, currentlyWearing []int64, rules map[string]any, is2D bool, size string, fullAvatar bool) ([]byte, error) {
	if len(wearing) == 0 {
		return nil, nil
	}

	payload := renderPayload(wearing, currentlyWearing, rules, is2D, size)

	var lastErr error
	for attempt := 0; attempt < config.RenderRetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(config.RenderRetryBackoff):
			}
		}

		var out struct {
			State    string `json:"state"`
			ImageURL string `json:"imageUrl"`
		}
		ok, err := c.postJSON(ctx, "https://avatar.roblox.com/v1/avatar/render", payload, &out)
		if err != nil || !ok {
			lastErr = err
			continue
		}
		if out.State != "Completed" || out.ImageURL == "" {
			continue
		}

		imageURL := out.ImageURL
		if !fullAvatar {
			imageURL = resizeRenderURL(imageURL, "500", "500")
		}
		img, err := c.fetchImage(ctx, imageURL)
		if err != nil {
			lastErr = err
			continue
		}
		if fullAvatar {
			return img, nil
		}
		headshot, err := cropHeadshot(img)
		if err != nil {
			return nil, err
		}
		return headshot, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("render did not complete: %w", lastErr)
	}
	return nil, nil
}

// renderPayload builds the avatar definition for the render request: the
// real worn assets, the simulated additions, and body colors resolved from
// brick color ids to hex via the rules palette.
func renderPayload(wearing map[string]any, currentlyWearing []int64, rules map[string]any, is2D bool, size string) map[string]any {
	already := make(map[int64]bool)
	var assets []map[string]any
	if worn, ok := wearing["assets"].([]any); ok {
		for _, entry := range worn {
			asset, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			id, ok := asset["id"].(float64)
			if !ok {
				continue
			}
			already[int64(id)] = true
			assets = append(assets, map[string]any{"id": int64(id)})
		}
	}
	for _, id := range currentlyWearing {
		if !already[id] {
			assets = append(assets, map[string]any{"id": id})
		}
	}

	bodyColors := make(map[string]any)
	if colors, ok := wearing["bodyColors"].(map[string]any); ok {
		palette, _ := rules["bodyColorsPalette"].([]any)
		for colorType, brickID := range colors {
			for _, entry := range palette {
				paletteColor, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				if paletteColor["brickColorId"] == brickID {
					bodyColors[strings.TrimSuffix(colorType, "Id")] = paletteColor["hexColor"]
					break
				}
			}
		}
	}

	thumbnailType := "3d"
	if is2D {
		thumbnailType = "2d"
	}

	return map[string]any{
		"thumbnailConfig": map[string]any{
			"thumbnailId":   16630147,
			"thumbnailType": thumbnailType,
			"size":          size,
		},
		"avatarDefinition": map[string]any{
			"assets":     assets,
			"bodyColors": bodyColors,
			"scales":     wearing["scales"],
			"playerAvatarType": map[string]any{
				"playerAvatarType": wearing["playerAvatarType"],
			},
		},
	}
}

// resizeRenderURL swaps the width/height path segments of a CDN render URL.
// The segments sit five and four positions from the end.
func resizeRenderURL(url, width, height string) string {
	parts := strings.Split(url, "/")
	if len(parts) < 5 {
		return url
	}
	rebuilt := append([]string{}, parts[:len(parts)-5]...)
	rebuilt = append(rebuilt, width, height)
	rebuilt = append(rebuilt, parts[len(parts)-3:]...)
	return strings.Join(rebuilt, "/")
}

func (c *Client) fetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// cropHeadshot cuts the head region out of a full-body render. The crop box
// is 34% to 66% of the width, starting 13% down, kept square.
func cropHeadshot(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode render: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	left := int(float64(w) * 0.34)
	top := int(float64(h) * 0.13)
	right := int(float64(w) * 0.66)
	bottom := top + (right - left)

	headshot := imaging.Crop(img, image.Rect(left, top, right, bottom))

	var out bytes.Buffer
	if err := webp.Encode(&out, headshot, &webp.Options{Lossless: true}); err != nil {
		return nil, fmt.Errorf("failed to encode headshot: %w", err)
	}
	return out.Bytes(), nil
}
