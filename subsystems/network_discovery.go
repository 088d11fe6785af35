package subsystems

import (
	"fmt"
	"os"

	"github.com/Artiqlate/callisto/transmission"
	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

const (
	InstanceName = "Callisto"
	Service      = "_callisto._tcp"
	Domain       = "local."
	// "Default port" is all resolved in config
)

type NetworkDiscovery struct {
	server *zeroconf.Server
}

// NewNetworkDiscovery advertises the transmission server. The record points
// at the host's non-loopback IPv4 addresses when they can be listed.
func NewNetworkDiscovery(instance string, service string, port int, secure bool, logger *zap.Logger) (*NetworkDiscovery, error) {
	if instance == "" {
		instance = InstanceName
	}
	if service == "" {
		service = Service
	}
	// If more information needs to be passed, add it here.
	text := []string{fmt.Sprintf("secure=%t", secure)}

	addresses, addressErr := transmission.AvailableIPAddresses()
	hostname, hostnameErr := os.Hostname()
	if addressErr != nil || hostnameErr != nil || len(addresses) == 0 {
		logger.Debug("advertising on all interfaces", zap.NamedError("addressErr", addressErr), zap.NamedError("hostnameErr", hostnameErr))
		zcServer, registerErr := zeroconf.Register(instance, service, Domain, port, text, nil)
		if registerErr != nil {
			return nil, fmt.Errorf("zeroconf register: %w", registerErr)
		}
		return &NetworkDiscovery{zcServer}, nil
	}

	ips := make([]string, 0, len(addresses))
	for _, address := range addresses {
		ips = append(ips, address.String())
	}
	zcServer, registerErr := zeroconf.RegisterProxy(instance, service, Domain, port, hostname, ips, text, nil)
	if registerErr != nil {
		return nil, fmt.Errorf("zeroconf register: %w", registerErr)
	}
	logger.Info("advertising service", zap.String("service", service), zap.Strings("ips", ips), zap.Int("port", port))
	return &NetworkDiscovery{zcServer}, nil
}

func (nt *NetworkDiscovery) Shutdown() {
	nt.server.Shutdown()
}
