package transmission

import (
	"fmt"
	"net"

	"github.com/samber/lo"
)

// AvailableIPAddresses lists the IPv4 addresses the companion device can
// reach the server on.
func AvailableIPAddresses() ([]net.IP, error) {
	ifaces, ifacesErr := net.Interfaces()
	if ifacesErr != nil {
		return nil, fmt.Errorf("list interfaces: %w", ifacesErr)
	}
	var ips []net.IP
	for _, iface := range lo.Filter(ifaces, func(iface net.Interface, _ int) bool { return usableInterface(iface.Flags) }) {
		addresses, addrErr := iface.Addrs()
		if addrErr != nil {
			return nil, fmt.Errorf("addresses of %s: %w", iface.Name, addrErr)
		}
		ips = append(ips, ipv4Addresses(addresses)...)
	}
	return lo.UniqBy(ips, func(ip net.IP) string { return ip.String() }), nil
}

// Loop-back and down interfaces are ignored
func usableInterface(flags net.Flags) bool {
	return flags&net.FlagLoopback == 0 && flags&net.FlagUp != 0
}

func ipv4Addresses(addresses []net.Addr) []net.IP {
	var ips []net.IP
	for _, address := range addresses {
		ipNet, ok := address.(*net.IPNet)
		if !ok || ipNet.IP.To4() == nil {
			continue
		}
		ips = append(ips, ipNet.IP)
	}
	return ips
}
