package lan

import (
	"fmt"
	"net"
)

// IPv4Addrs lists the non-loopback IPv4 addresses of this host.
func IPv4Addrs() ([]net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("failed to list interface addresses: %w", err)
	}
	return filterIPv4(addrs), nil
}

func filterIPv4(addrs []net.Addr) []net.IP {
	var out []net.IP
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			out = append(out, ip4)
		}
	}
	return out
}

// URLs returns one http URL per LAN address for the given port.
func URLs(port string) []string {
	ips, err := IPv4Addrs()
	if err != nil {
		return nil
	}
	urls := make([]string, 0, len(ips))
	for _, ip := range ips {
		urls = append(urls, fmt.Sprintf("http://%s", net.JoinHostPort(ip.String(), port)))
	}
	return urls
}

// HostURL is the first LAN URL, or localhost when there is no LAN address.
func HostURL(port string) string {
	if urls := URLs(port); len(urls) > 0 {
		return urls[0]
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort("localhost", port))
}
