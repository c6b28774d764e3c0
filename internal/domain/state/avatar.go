package state

// AvatarComposition stores the last observed avatar definition and the
// platform's composition rules. Both are remote-shaped documents kept
// structurally intact so unknown fields survive the round trip back into
// rewritten responses and render requests.
type AvatarComposition struct {
	Rules   map[string]any `json:"rules"`
	Wearing map[string]any `json:"wearing"`
}

// HasRules reports whether composition rules have been captured.
func (a *AvatarComposition) HasRules() bool { return len(a.Rules) > 0 }

// HasWearing reports whether a full avatar definition has been captured.
func (a *AvatarComposition) HasWearing() bool { return len(a.Wearing) > 0 }

// WearingAssetIDs extracts the asset ids of the stored avatar definition.
func (a *AvatarComposition) WearingAssetIDs() []int64 {
	assets, ok := a.Wearing["assets"].([]any)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(assets))
	for _, raw := range assets {
		asset, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := asset["id"].(float64); ok {
			ids = append(ids, int64(id))
		}
	}
	return ids
}
