package notifications

import (
	"errors"
	"net"
	"testing"
)

func TestIsLocalURL(t *testing.T) {
	origLookup, origAddrs := lookupIP, interfaceAddrs
	t.Cleanup(func() { lookupIP, interfaceAddrs = origLookup, origAddrs })

	lookupIP = func(host string) ([]net.IP, error) {
		switch host {
		case "self.example":
			return []net.IP{net.ParseIP("192.0.2.10")}, nil
		case "remote.example":
			return []net.IP{net.ParseIP("198.51.100.7")}, nil
		default:
			return nil, errors.New("no such host")
		}
	}
	interfaceAddrs = func() ([]net.Addr, error) {
		return []net.Addr{
			&net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)},
			&net.IPNet{IP: net.ParseIP("192.0.2.10"), Mask: net.CIDRMask(24, 32)},
		}, nil
	}

	cases := map[string]bool{
		"https://localhost:3001/x":      true,
		"https://127.0.0.1/x":           true,
		"https://[::1]:8443/x":          true,
		"https://192.0.2.10/x":          true,
		"https://self.example/x":        true,
		"https://remote.example/x":      false,
		"https://198.51.100.7/x":        false,
		"https://unresolvable.invalid/": false,
		"not a url":                     false,
	}
	for raw, want := range cases {
		if got := IsLocalURL(raw); got != want {
			t.Errorf("IsLocalURL(%q) = %v, want %v", raw, got, want)
		}
	}
}
