// Package proxy is the host transport adapter: a plain HTTP forward proxy
// that turns each intercepted request/response pair into an engine exchange.
// TLS interception (certificate minting) is left to a terminating proxy in
// front; this server sees decrypted HTTP. CONNECT is tunneled opaquely.
package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/xolodev/xolo-go/internal/application/services"
	"github.com/xolodev/xolo-go/internal/engine"
	"github.com/xolodev/xolo-go/internal/infrastructure/observability/logging"
	"github.com/xolodev/xolo-go/internal/infrastructure/remote"
	"github.com/xolodev/xolo-go/pkg/config"
)

// hop-by-hop headers are stripped before forwarding either direction.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Proxy serves forward-proxy traffic and feeds every plain HTTP exchange
// through the engine.
type Proxy struct {
	engine     *services.EngineService
	transport  http.RoundTripper
	logger     *logging.ChanneledLogger
	httpServer *http.Server
}

// New creates the proxy server on the given port.
func New(port string, eng *services.EngineService, logger *logging.ChanneledLogger) *Proxy {
	p := &Proxy{
		engine: eng,
		transport: &http.Transport{
			// The engine edits bodies; upstream compression would hide them.
			DisableCompression: true,
			Proxy:              nil,
		},
		logger: logger,
	}
	p.httpServer = &http.Server{
		Addr:        ":" + port,
		Handler:     p,
		ReadTimeout: config.ServerReadTimeout,
		IdleTimeout: config.ServerIdleTimeout,
	}
	return p
}

// Start begins listening for proxied requests.
func (p *Proxy) Start() error {
	p.logger.System().Info("Proxy listening", "address", p.httpServer.Addr)
	if err := p.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start proxy: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the proxy.
func (p *Proxy) Stop(ctx context.Context) error {
	return p.httpServer.Shutdown(ctx)
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodConnect {
		p.tunnel(w, r)
		return
	}
	if !r.URL.IsAbs() {
		http.Error(w, "this is a forward proxy", http.StatusBadRequest)
		return
	}
	p.intercept(w, r)
}

// intercept runs one exchange through the engine: request phase, upstream
// round trip unless short-circuited, response phase, then write-out.
func (p *Proxy) intercept(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadGateway)
		return
	}
	r.Body.Close()

	header := r.Header.Clone()
	for _, h := range hopHeaders {
		header.Del(h)
	}

	// Engine-originated calls loop back through the proxy; forward them
	// untouched or the avatar warm-up would recurse.
	bypass := header.Get(remote.BypassHeader) != ""

	ex := engine.NewExchange(r.Method, r.URL, header, body)
	ctx := r.Context()

	if !bypass {
		p.engine.ProcessRequest(ctx, ex)
		if ex.HasResponse() {
			p.writeResponse(w, ex)
			return
		}
	}

	if err := p.forward(ctx, ex); err != nil {
		p.logger.System().Error("Upstream request failed", "url", ex.FullURL(), "error", err.Error())
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}

	if !bypass {
		p.engine.ProcessResponse(ctx, ex)
	}
	p.writeResponse(w, ex)
}

// forward performs the upstream round trip and attaches the response to the
// exchange.
func (p *Proxy) forward(ctx context.Context, ex *engine.Exchange) error {
	req, err := http.NewRequestWithContext(ctx, ex.Method, ex.FullURL(), bytes.NewReader(ex.RequestBody))
	if err != nil {
		return fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header = ex.RequestHeader.Clone()
	req.Header.Del(remote.BypassHeader)
	req.ContentLength = int64(len(ex.RequestBody))

	resp, err := p.transport.RoundTrip(req)
	if err != nil {
		return fmt.Errorf("upstream round trip failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read upstream response: %w", err)
	}

	ex.Status = resp.StatusCode
	ex.ResponseHeader = resp.Header.Clone()
	ex.ResponseBody = respBody
	return nil
}

// writeResponse serializes the exchange's response back to the client.
func (p *Proxy) writeResponse(w http.ResponseWriter, ex *engine.Exchange) {
	header := w.Header()
	for key, values := range ex.ResponseHeader {
		header[key] = values
	}
	for _, h := range hopHeaders {
		header.Del(h)
	}
	// The body may have been rewritten; any original length is stale.
	header.Set("Content-Length", fmt.Sprintf("%d", len(ex.ResponseBody)))

	status := ex.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	w.Write(ex.ResponseBody)
}

// tunnel passes CONNECT traffic through opaquely.
func (p *Proxy) tunnel(w http.ResponseWriter, r *http.Request) {
	upstream, err := net.DialTimeout("tcp", r.Host, 10*time.Second)
	if err != nil {
		http.Error(w, "failed to reach upstream", http.StatusBadGateway)
		return
	}

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		upstream.Close()
		http.Error(w, "hijacking not supported", http.StatusInternalServerError)
		return
	}
	client, _, err := hijacker.Hijack()
	if err != nil {
		upstream.Close()
		http.Error(w, "hijack failed", http.StatusInternalServerError)
		return
	}

	client.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n"))

	go pipe(upstream, client)
	go pipe(client, upstream)
}

func pipe(dst, src net.Conn) {
	defer dst.Close()
	defer src.Close()
	io.Copy(dst, src)
}
