package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"syscall"

	"github.com/gobwas/glob"
)

// Ranges that are not covered by the netip.Addr predicates but must never be fetched
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("64:ff9b::/96"),
	netip.MustParsePrefix("64:ff9b:1::/48"),
	netip.MustParsePrefix("2001:db8::/32"),
}

// Resolver resolves host names to addresses. *net.Resolver satisfies it.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Guard decides whether a URL or a dialed address may be fetched
type Guard struct {
	deniedHosts  []glob.Glob
	allowPrivate bool
	resolver     Resolver
}

// NewGuard creates a guard. deniedHosts are glob patterns matched against
// lower-cased host names, e.g. "*.internal".
func NewGuard(deniedHosts []string, allowPrivate bool, resolver Resolver) (*Guard, error) {
	g := &Guard{
		allowPrivate: allowPrivate,
		resolver:     resolver,
	}
	if g.resolver == nil {
		g.resolver = net.DefaultResolver
	}

	for _, pattern := range deniedHosts {
		compiled, err := glob.Compile(strings.ToLower(pattern), '.')
		if err != nil {
			return nil, fmt.Errorf("invalid denied host pattern %q: %w", pattern, err)
		}
		g.deniedHosts = append(g.deniedHosts, compiled)
	}

	return g, nil
}

// IsPublicAddr reports whether addr is a globally routable unicast address
func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() ||
		addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified() {
		return false
	}
	for _, prefix := range reservedPrefixes {
		if prefix.Contains(addr) {
			return false
		}
	}
	return true
}

// CheckURL validates the scheme and host of u and resolves the host, failing
// if any resolved address is not public. DNS errors are returned unwrapped
// as *net.DNSError so callers can classify them.
func (g *Guard) CheckURL(ctx context.Context, u *url.URL) error {
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("%w: %s", ErrInsecureScheme, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrBlockedHost)
	}
	for _, pattern := range g.deniedHosts {
		if pattern.Match(host) {
			return fmt.Errorf("%w: %s", ErrBlockedHost, host)
		}
	}

	if g.allowPrivate {
		return nil
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return g.checkAddr(addr)
	}

	addrs, err := g.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		return &net.DNSError{Err: "no addresses found", Name: host, IsNotFound: true}
	}
	for _, addr := range addrs {
		if err := g.checkAddr(addr); err != nil {
			return err
		}
	}
	return nil
}

func (g *Guard) checkAddr(addr netip.Addr) error {
	if g.allowPrivate || IsPublicAddr(addr) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrBlockedAddress, addr)
}

// control is installed as the dialer's Control hook. It re-checks the address
// actually being connected to, which closes the DNS rebinding window between
// CheckURL and the dial.
func (g *Guard) control(_, address string, _ syscall.RawConn) error {
	if g.allowPrivate {
		return nil
	}
	addrPort, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: unparseable address %s", ErrBlockedAddress, address)
	}
	return g.checkAddr(addrPort.Addr())
}
