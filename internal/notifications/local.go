package notifications

import (
	"net"
	"net/url"
	"strings"
)

var (
	lookupIP       = net.LookupIP
	interfaceAddrs = net.InterfaceAddrs
)

// IsLocalURL reports whether rawURL's host is a loopback name or address, or
// resolves to an address bound to a local interface.
func IsLocalURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(strings.TrimSpace(parsed.Hostname()))
	if host == "" {
		return false
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}

	var candidates []net.IP
	if ip := net.ParseIP(host); ip != nil {
		candidates = []net.IP{ip}
	} else {
		resolved, err := lookupIP(host)
		if err != nil {
			return false
		}
		candidates = resolved
	}

	for _, ip := range candidates {
		if ip.IsLoopback() {
			return true
		}
	}

	addrs, err := interfaceAddrs()
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		var local net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			local = v.IP
		case *net.IPAddr:
			local = v.IP
		}
		for _, ip := range candidates {
			if local != nil && local.Equal(ip) {
				return true
			}
		}
	}
	return false
}
