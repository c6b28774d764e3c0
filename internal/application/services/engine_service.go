// Package services provides the application-layer singletons that sit
// between the transport adapters and the rewriting engine.
package services

import (
	"context"
	"sync"

	"github.com/xolodev/xolo-go/internal/engine"
	"github.com/xolodev/xolo-go/internal/infrastructure/messaging"
)

// EngineService serializes exchange processing through the Router. The
// engine mutates one shared ApplicationState, so exchanges run one at a
// time; the proxy may accept connections concurrently but hands them over
// here in order.
type EngineService struct {
	router *engine.Router
	events messaging.EventSink
	mu     sync.Mutex
}

func NewEngineService(router *engine.Router, events messaging.EventSink) *EngineService {
	if events == nil {
		events = messaging.NopSink{}
	}
	return &EngineService{router: router, events: events}
}

// ProcessRequest runs the request phase of an exchange.
func (s *EngineService) ProcessRequest(ctx context.Context, ex *engine.Exchange) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	claimed := s.router.HandleRequest(ctx, ex)
	if claimed {
		s.publishExchange("request", ex, claimed)
	}
	return claimed
}

// ProcessResponse runs the response phase of an exchange.
func (s *EngineService) ProcessResponse(ctx context.Context, ex *engine.Exchange) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	claimed := s.router.HandleResponse(ctx, ex)
	if claimed {
		s.publishExchange("response", ex, claimed)
	}
	return claimed
}

// Do runs fn while holding the engine lock. Dashboard reads and mutations of
// the shared state go through here so they never interleave with an
// in-flight exchange.
func (s *EngineService) Do(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *EngineService) publishExchange(phase string, ex *engine.Exchange, claimed bool) {
	s.events.Publish(messaging.NewEvent("exchange", map[string]any{
		"phase":   phase,
		"method":  ex.Method,
		"url":     ex.FullURL(),
		"claimed": claimed,
	}))
}
