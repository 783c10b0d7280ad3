package server

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Server is the operational HTTP surface: liveness, the allow-listed
// uptime probe, and the Telegram webhook when the bot runs in webhook
// mode. It never touches conversational state.
type Server struct {
	mux     *http.ServeMux
	allowed []netip.Prefix
}

// New builds the mux. uptimeAllow is a comma-separated CIDR list; empty
// admits every caller. webhook may be nil in polling mode.
func New(uptimeAllow, webhookPath string, webhook http.Handler) (*Server, error) {
	s := &Server{mux: http.NewServeMux()}

	for _, raw := range strings.Split(uptimeAllow, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q in uptime allow-list: %w", raw, err)
		}
		s.allowed = append(s.allowed, p)
	}

	s.mux.HandleFunc("/health", s.health)
	s.mux.HandleFunc("/uptime", s.uptime)
	if webhook != nil {
		s.mux.Handle(webhookPath, webhook)
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) uptime(w http.ResponseWriter, r *http.Request) {
	if len(s.allowed) > 0 {
		ip, err := clientIP(r)
		if err != nil || !s.allowedIP(ip) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) allowedIP(ip netip.Addr) bool {
	for _, p := range s.allowed {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP prefers the first X-Forwarded-For entry since the bot usually
// sits behind the platform's proxy, and falls back to the socket address.
func clientIP(r *http.Request) (netip.Addr, error) {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		return netip.ParseAddr(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return netip.ParseAddr(host)
}
