package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// CallbackPath is the redirect path registered with the authorization server.
const CallbackPath = "/callback"

const shutdownGrace = 2 * time.Second

// Phase is the lifecycle position of a CallbackServer.
type Phase int

const (
	PhaseBound Phase = iota
	PhaseListening
	PhaseCodeReceived
	PhaseExchanging
	PhaseCompleted
	PhaseFailed
	PhaseTimedOut
)

func (p Phase) String() string {
	switch p {
	case PhaseBound:
		return "bound"
	case PhaseListening:
		return "listening"
	case PhaseCodeReceived:
		return "code-received"
	case PhaseExchanging:
		return "exchanging"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	case PhaseTimedOut:
		return "timed-out"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether no further transition can happen.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed || p == PhaseTimedOut
}

// ExchangeFunc trades an authorization code for a token.
type ExchangeFunc func(ctx context.Context, code string) (*oauth2.Token, error)

// CallbackServer is a one-shot loopback redirect target. It owns one
// listener and reaches exactly one terminal phase; Wait tears the listener
// down on every exit path.
type CallbackServer struct {
	logger   *slog.Logger
	listener net.Listener
	server   *http.Server
	redirect string

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	phase    Phase
	state    string
	exchange ExchangeFunc
	token    *oauth2.Token
	err      error
	done     chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Listen binds an OS-assigned port on the loopback interface. No request is
// handled until Serve is called.
func Listen(logger *slog.Logger) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to bind callback listener: %w", err)
	}

	addr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		_ = listener.Close()
		return nil, fmt.Errorf("unexpected listener address %s", listener.Addr())
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &CallbackServer{
		logger:   logger,
		listener: listener,
		redirect: fmt.Sprintf("http://127.0.0.1:%d%s", addr.Port, CallbackPath),
		ctx:      ctx,
		cancel:   cancel,
		phase:    PhaseBound,
		done:     make(chan struct{}),
	}
	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// RedirectURI returns http://127.0.0.1:<port>/callback.
func (s *CallbackServer) RedirectURI() string {
	return s.redirect
}

// Phase returns the current lifecycle phase.
func (s *CallbackServer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Serve starts handling requests. The expected state must be final before
// this call; exchange runs at most once.
func (s *CallbackServer) Serve(state string, exchange ExchangeFunc) error {
	s.mu.Lock()
	if s.phase != PhaseBound {
		s.mu.Unlock()
		return ErrAlreadyServing
	}
	s.state = state
	s.exchange = exchange
	s.phase = PhaseListening
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.finish(PhaseFailed, nil, fmt.Errorf("callback server: %w", err))
		}
	}()
	return nil
}

// Wait blocks until the flow reaches a terminal phase, the timeout elapses or
// ctx is done, then closes the server.
func (s *CallbackServer) Wait(ctx context.Context, timeout time.Duration) (*oauth2.Token, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.done:
	case <-timer.C:
		s.finish(PhaseTimedOut, nil, fmt.Errorf("%w after %s", ErrTimeout, timeout))
	case <-ctx.Done():
		s.finish(PhaseFailed, nil, ctx.Err())
	}

	if err := s.Close(); err != nil {
		s.logger.Debug("callback server close failed", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Debug("authorization attempt finished", "phase", s.phase.String())
	return s.token, s.err
}

// Close cancels any in-flight exchange and shuts the listener down. Safe to
// call more than once.
func (s *CallbackServer) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			s.closeErr = s.server.Close()
		}
		// Shutdown does not close a listener Serve never accepted on.
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) && s.closeErr == nil {
			s.closeErr = err
		}
	})
	return s.closeErr
}

// ServeHTTP handles the redirect.
func (s *CallbackServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, CallbackPath) {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	if s.phase != PhaseListening {
		s.mu.Unlock()
		writePage(w, http.StatusGone, "Login already handled", "You can close this window.")
		return
	}

	query := r.URL.Query()
	if subtle.ConstantTimeCompare([]byte(query.Get("state")), []byte(s.state)) != 1 {
		s.terminateLocked(PhaseFailed, nil, ErrStateMismatch)
		s.mu.Unlock()
		writePage(w, http.StatusBadRequest, "Login failed", "The login request could not be verified. Please try again from your terminal.")
		return
	}

	if code := query.Get("error"); code != "" {
		s.terminateLocked(PhaseFailed, nil, &ProviderError{Code: code, Description: query.Get("error_description")})
		s.mu.Unlock()
		writePage(w, http.StatusBadRequest, "Login failed", "Authorization was not granted. You can close this window.")
		return
	}

	code := query.Get("code")
	if code == "" {
		s.terminateLocked(PhaseFailed, nil, ErrNoCode)
		s.mu.Unlock()
		writePage(w, http.StatusBadRequest, "Login failed", "No authorization code was received.")
		return
	}

	s.phase = PhaseCodeReceived
	exchange := s.exchange
	ctx := s.ctx
	s.phase = PhaseExchanging
	s.mu.Unlock()

	token, err := exchange(ctx, code)
	if err != nil {
		s.finish(PhaseFailed, nil, err)
		writePage(w, http.StatusInternalServerError, "Login failed", "The token exchange failed. Check your terminal for details.")
		return
	}

	if !s.finish(PhaseCompleted, token, nil) {
		writePage(w, http.StatusGone, "Login expired", "The login attempt timed out. Please try again from your terminal.")
		return
	}
	writePage(w, http.StatusOK, "Login successful", "You can close this window and return to your terminal.")
}

// finish performs the single terminal transition. It returns false when
// another transition already won.
func (s *CallbackServer) finish(phase Phase, token *oauth2.Token, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminateLocked(phase, token, err)
}

func (s *CallbackServer) terminateLocked(phase Phase, token *oauth2.Token, err error) bool {
	if s.phase.Terminal() {
		return false
	}
	s.phase = phase
	s.token = token
	s.err = err
	close(s.done)
	return true
}

func writePage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `<!doctype html>
<html>
<head><meta charset="utf-8"><title>%[1]s</title></head>
<body style="font-family: system-ui, sans-serif; margin: 4rem auto; max-width: 32rem; text-align: center;">
<h1>%[1]s</h1>
<p>%[2]s</p>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(message))
}
