package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/infrastructure/observability/logging"
)

const securityCookie = ".ROBLOSECURITY"

var (
	balanceAttrPattern = regexp.MustCompile(`data-user-balance-robux="(\d+)"`)
	userDataPattern    = regexp.MustCompile(`<meta[^>]*name="user-data"[^>]*>`)
	userIDPattern      = regexp.MustCompile(`data-userid="([^"]*)"`)
	userNamePattern    = regexp.MustCompile(`data-name="([^"]*)"`)
	userPremiumPattern = regexp.MustCompile(`data-ispremiumuser="([^"]*)"`)
)

// Router owns the handler chain and the rewrites that cut across every
// handler: balance readback interception, identity capture from page HTML,
// and credential capture from request headers. Handlers run in a fixed
// order; the first one to claim an exchange ends the chain. A handler error
// is logged and the chain moves on, so one bad payload cannot take down the
// whole exchange.
type Router struct {
	state    *state.ApplicationState
	remote   RemoteClient
	persist  Persister
	logger   *logging.ChanneledLogger
	handlers []Handler
}

// NewRouter builds a router over the given handler chain.
func NewRouter(st *state.ApplicationState, rc RemoteClient, persist Persister, logger *logging.ChanneledLogger, handlers ...Handler) *Router {
	return &Router{state: st, remote: rc, persist: persist, logger: logger, handlers: handlers}
}

// HandleRequest runs the request phase: avatar warm-up, credential capture,
// then the handler chain. Returns whether any handler claimed the exchange.
func (r *Router) HandleRequest(ctx context.Context, ex *Exchange) bool {
	r.warmUpAvatar(ctx)
	r.captureCredentials(ex)

	for _, h := range r.handlers {
		claimed, err := h.HandleRequest(ctx, ex)
		if err != nil {
			r.logger.Engine().Error("Handler request phase failed",
				"handler", h.Name(), "url", ex.FullURL(), "error", err.Error())
			continue
		}
		if claimed {
			r.logger.Engine().Debug("Request claimed", "handler", h.Name(), "url", ex.FullURL())
			return true
		}
	}
	return false
}

// HandleResponse runs the response phase: currency readback, HTML balance
// and identity capture, then the handler chain.
func (r *Router) HandleResponse(ctx context.Context, ex *Exchange) bool {
	if ex.URLContains("economy.roblox.com/v1/users/") && ex.URLContains("/currency") {
		r.rewriteCurrency(ex)
		return true
	}

	if ex.URLContains("roblox.com") {
		r.capturePageBalance(ex)
		r.capturePageIdentity(ex)
	}

	for _, h := range r.handlers {
		claimed, err := h.HandleResponse(ctx, ex)
		if err != nil {
			r.logger.Engine().Error("Handler response phase failed",
				"handler", h.Name(), "url", ex.FullURL(), "error", err.Error())
			continue
		}
		if claimed {
			r.logger.Engine().Debug("Response claimed", "handler", h.Name(), "url", ex.FullURL())
			return true
		}
	}
	return false
}

// warmUpAvatar lazily fetches the avatar rules and the real equipped set the
// first time they are needed. The equipped set additionally needs captured
// credentials.
func (r *Router) warmUpAvatar(ctx context.Context) {
	if !r.state.Avatar.HasRules() {
		if rules, err := r.remote.AvatarRules(ctx); err == nil && rules != nil {
			r.state.Avatar.Rules = rules
		}
	}
	if !r.state.Avatar.HasWearing() && r.state.Session.Cookie != "" && r.state.Session.CSRFToken != "" {
		if avatar, err := r.remote.CurrentAvatar(ctx); err == nil && avatar != nil {
			r.state.Avatar.Wearing = avatar
		}
	}
}

func (r *Router) captureCredentials(ex *Exchange) {
	if !ex.URLContains("roblox.com") {
		return
	}
	changed := false
	if r.state.Session.ApplyCookie(ex.RequestCookie(securityCookie)) {
		changed = true
	}
	if r.state.Session.ApplyCSRFToken(ex.RequestHeader.Get("x-csrf-token")) {
		changed = true
	}
	if changed {
		r.logger.Engine().Info("Session credentials captured")
		r.persist.SaveState(r.state)
	}
}

// rewriteCurrency serves the simulated balance on every currency readback,
// capturing the real balance the first time one passes through.
func (r *Router) rewriteCurrency(ex *Exchange) {
	if !r.state.Balance.Captured() {
		robux := ex.ResponseProbe("robux")
		if !robux.Exists() {
			r.logger.Engine().Error("Currency readback had no balance field", "url", ex.FullURL())
			return
		}
		r.state.Balance.CaptureReal(robux.Int())
		r.logger.Engine().Info("Real balance captured", "balance", robux.Int())
		r.persist.SaveState(r.state)
	}
	if err := ex.SetResponseJSON(map[string]any{"robux": r.state.Balance.CurrentBalance}); err != nil {
		r.logger.Engine().Error("Currency rewrite failed", "error", err.Error())
	}
}

// capturePageBalance handles the balance attribute embedded in purchase
// pages: capture on first sight, then rewrite to the simulated balance.
func (r *Router) capturePageBalance(ex *Exchange) {
	body := ex.ResponseText()
	m := balanceAttrPattern.FindStringSubmatch(body)
	if m == nil {
		return
	}
	if !r.state.Balance.Captured() {
		if real, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			r.state.Balance.CaptureReal(real)
			r.logger.Engine().Info("Real balance captured from page", "balance", real)
			r.persist.SaveState(r.state)
		}
	}
	rewritten := balanceAttrPattern.ReplaceAllString(body,
		fmt.Sprintf(`data-user-balance-robux="%d"`, r.state.Balance.CurrentBalance))
	ex.SetResponseText(rewritten)
}

// capturePageIdentity pulls the logged-in user's id, name, and premium flag
// out of the user-data meta tag every authenticated page carries.
func (r *Router) capturePageIdentity(ex *Exchange) {
	tag := userDataPattern.FindString(ex.ResponseText())
	if tag == "" {
		return
	}
	userID := firstGroup(userIDPattern, tag)
	if userID == "" {
		return
	}
	if r.state.Session.ApplyIdentity(userID, firstGroup(userNamePattern, tag), firstGroup(userPremiumPattern, tag)) {
		r.logger.Engine().Info("User identity captured", "userId", userID)
		r.persist.SaveState(r.state)
	}
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}
