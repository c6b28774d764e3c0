package handlers

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/xolodev/xolo-go/internal/infrastructure/security"
	"github.com/xolodev/xolo-go/pkg/config"
)

// Synthetic records need ids that look plausible next to real platform data
// but never collide with it across restarts.

func newIDHash() string { return security.GenerateULID() }

func newPurchaseToken() string { return security.GenerateULID() }

func newInstanceID() string { return uuid.NewString() }

func newRecordID() int64 { return randomBetween(config.UserAssetIDMin, config.UserAssetIDMax) }

func newUserAssetID() int64 { return randomBetween(config.UserAssetIDMin, config.UserAssetIDMax) }

func newVersionID() int64 { return randomBetween(config.VersionIDMin, config.VersionIDMax) }

func newAccessoryOrder() int64 {
	return randomBetween(int64(config.AccessoryOrderMin), int64(config.AccessoryOrderMax))
}

// randomBetween returns a value in [min, max].
func randomBetween(min, max int64) int64 {
	return min + rand.Int63n(max-min+1)
}
