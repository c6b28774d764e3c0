// Package handlers contains the fixed chain of traffic rewriters: purchase
// interception, inventory listings, avatar state and renders, transaction
// history, and game-pass pages. Chain order matters and is owned by NewChain.
package handlers

import (
	"strconv"

	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/engine"
	"github.com/xolodev/xolo-go/internal/infrastructure/observability/logging"
)

// Deps bundles the collaborators every handler shares.
type Deps struct {
	State   *state.ApplicationState
	Remote  engine.RemoteClient
	Persist engine.Persister
	Audit   engine.Auditor
	Logger  *logging.ChanneledLogger
}

type base struct {
	state   *state.ApplicationState
	remote  engine.RemoteClient
	persist engine.Persister
	audit   engine.Auditor
	logger  *logging.ChanneledLogger
}

func newBase(deps Deps) base {
	return base{
		state:   deps.State,
		remote:  deps.Remote,
		persist: deps.Persist,
		audit:   deps.Audit,
		logger:  deps.Logger,
	}
}

func (b *base) save() {
	b.persist.SaveState(b.state)
}

// recordAudit appends to the audit trail when one is wired. Audit misses
// never fail the purchase.
func (b *base) recordAudit(record *state.PurchaseRecord) {
	if b.audit == nil {
		return
	}
	if err := b.audit.RecordPurchase(record); err != nil {
		b.logger.Purchase().Error("Audit write failed", "recordId", record.ID, "error", err.Error())
	}
}

// NewChain builds the handler chain in its fixed priority order: purchase
// interception must see traffic before inventory listings, avatar rewrites
// before transaction history, and game-pass page scraping last.
func NewChain(deps Deps) []engine.Handler {
	return []engine.Handler{
		NewPurchaseHandler(deps),
		NewInventoryHandler(deps),
		NewAvatarHandler(deps),
		NewTransactionHandler(deps),
		NewGamePassHandler(deps),
	}
}

func itemKey(id int64) string { return strconv.FormatInt(id, 10) }

// assetTypeNames maps platform asset type ids to their display names.
var assetTypeNames = map[int]string{
	1:  "Image",
	2:  "TShirt",
	3:  "Audio",
	4:  "Mesh",
	5:  "Lua",
	6:  "HTML",
	7:  "Text",
	8:  "Hat",
	9:  "Place",
	10: "Model",
	11: "Shirt",
	12: "Pants",
	13: "Decal",
	16: "Avatar",
	17: "Head",
	18: "Face",
	19: "Gear",
	21: "Badge",
	22: "GroupEmblem",
	24: "Animation",
	25: "Arms",
	26: "Legs",
	27: "Torso",
	28: "RightArm",
	29: "LeftArm",
	30: "LeftLeg",
	31: "RightLeg",
	32: "Package",
	33: "YouTubeVideo",
	34: "GamePass",
	37: "Code",
	38: "Plugin",
	39: "SolidModel",
	40: "MeshPart",
	41: "HairAccessory",
	42: "FaceAccessory",
	43: "NeckAccessory",
	44: "ShoulderAccessory",
	45: "FrontAccessory",
	46: "BackAccessory",
}

const emoteAssetType = 61
