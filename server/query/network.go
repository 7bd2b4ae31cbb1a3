package query

import (
	"context"
	"log/slog"
	"net"

	"github.com/sandertv/go-raknet"
	"github.com/sandertv/gophertunnel/minecraft"
)

// Install replaces the "raknet" network of gophertunnel with one that answers
// query requests through r. It must be called before the server listens.
func Install(r *Responder) {
	minecraft.RegisterNetwork("raknet", func(l *slog.Logger) minecraft.Network {
		return network{log: l.With("net origin", "raknet"), r: r}
	})
}

// network delegates everything except the packet listener to go-raknet.
type network struct {
	log *slog.Logger
	r   *Responder
}

func (n network) DialContext(ctx context.Context, address string) (net.Conn, error) {
	return raknet.Dialer{ErrorLog: n.log}.DialContext(ctx, address)
}

func (n network) PingContext(ctx context.Context, address string) ([]byte, error) {
	return raknet.Dialer{ErrorLog: n.log}.PingContext(ctx, address)
}

func (n network) Listen(address string) (minecraft.NetworkListener, error) {
	return raknet.ListenConfig{
		ErrorLog:               n.log,
		UpstreamPacketListener: packetListener{r: n.r},
	}.Listen(address)
}

type packetListener struct {
	r *Responder
}

func (l packetListener) ListenPacket(network, address string) (net.PacketConn, error) {
	conn, err := net.ListenPacket(network, address)
	if err != nil {
		return nil, err
	}
	pc := &packetConn{PacketConn: conn, r: l.r}
	if local, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		pc.port = local.Port
		if local.IP != nil && !local.IP.IsUnspecified() {
			pc.host = local.IP.String()
		}
	}
	return pc, nil
}

// packetConn filters query datagrams out of the stream read by RakNet.
type packetConn struct {
	net.PacketConn
	r    *Responder
	host string
	port int
}

func (c *packetConn) ReadFrom(p []byte) (int, net.Addr, error) {
	for {
		n, addr, err := c.PacketConn.ReadFrom(p)
		if err != nil || n == 0 {
			return n, addr, err
		}
		if !c.r.Handle(c.PacketConn, p[:n], addr, c.host, c.port) {
			return n, addr, nil
		}
	}
}
