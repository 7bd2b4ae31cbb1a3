package query

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"math/rand/v2"
	"net"
	"strconv"
	"sync"
	"time"
)

const (
	typeHandshake   = 0x09
	typeInformation = 0x00

	tokenLifetime = 30 * time.Second
)

var (
	magic     = [...]byte{0xfe, 0xfd}
	splitNum  = [...]byte{'S', 'P', 'L', 'I', 'T', 'N', 'U', 'M', 0x00}
	playerKey = [...]byte{0x00, 0x01, 'p', 'l', 'a', 'y', 'e', 'r', '_', 0x00, 0x00}
)

// Source returns the current server status. It is called once for every
// validated information request and must be safe for concurrent use.
type Source func() Data

// Responder issues challenge tokens and answers information requests with the
// Data returned by its Source.
type Responder struct {
	log *slog.Logger
	src Source

	mu     sync.Mutex
	tokens map[string]challenge
}

type challenge struct {
	value  int32
	expiry time.Time
}

// NewResponder returns a Responder reporting the status returned by src.
func NewResponder(log *slog.Logger, src Source) *Responder {
	if log == nil {
		log = slog.Default()
	}
	return &Responder{log: log, src: src, tokens: make(map[string]challenge)}
}

// Handle answers b if it is a query request, writing the response to w. It
// reports false for datagrams that are not query traffic. host and port are
// the address the listener is bound to.
func (r *Responder) Handle(w net.PacketConn, b []byte, addr net.Addr, host string, port int) bool {
	if len(b) < 7 || b[0] != magic[0] || b[1] != magic[1] {
		return false
	}
	sequence := int32(binary.BigEndian.Uint32(b[3:7]))
	switch b[2] {
	case typeHandshake:
		r.write(w, addr, r.handshake(sequence, r.issue(addr.String())))
	case typeInformation:
		value, ok := parseToken(b[7:])
		if !ok || !r.valid(addr.String(), value) {
			return true
		}
		r.write(w, addr, r.information(sequence, host, port))
	default:
		return false
	}
	return true
}

// issue creates a new challenge token for addr, dropping expired ones.
func (r *Responder) issue(addr string) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for k, c := range r.tokens {
		if now.After(c.expiry) {
			delete(r.tokens, k)
		}
	}
	value := rand.Int32()
	r.tokens[addr] = challenge{value: value, expiry: now.Add(tokenLifetime)}
	return value
}

func (r *Responder) valid(addr string, value int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.tokens[addr]
	if !ok || time.Now().After(c.expiry) || c.value != value {
		delete(r.tokens, addr)
		return false
	}
	return true
}

func (r *Responder) handshake(sequence, token int32) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 17))
	buf.WriteByte(typeHandshake)
	_ = binary.Write(buf, binary.BigEndian, sequence)

	s := strconv.FormatInt(int64(token), 10)
	if len(s) > 12 {
		s = s[:12]
	}
	buf.WriteString(s)
	buf.Write(make([]byte, 12-len(s)))
	return buf.Bytes()
}

func (r *Responder) information(sequence int32, host string, port int) []byte {
	var d Data
	if r.src != nil {
		d = r.src()
	}
	d.HostIP, d.HostPort = canonicalHost(host), port
	d.fill()

	buf := bytes.NewBuffer(make([]byte, 0, 256))
	buf.WriteByte(typeInformation)
	_ = binary.Write(buf, binary.BigEndian, sequence)
	buf.Write(splitNum[:])
	buf.Write([]byte{0x80, 0x00})
	for _, kv := range d.pairs() {
		buf.WriteString(kv[0])
		buf.WriteByte(0x00)
		buf.WriteString(kv[1])
		buf.WriteByte(0x00)
	}
	buf.WriteByte(0x00)
	buf.Write(playerKey[:])
	for _, name := range d.PlayerNames {
		buf.WriteString(name)
		buf.WriteByte(0x00)
	}
	buf.WriteByte(0x00)
	return buf.Bytes()
}

func (r *Responder) write(w net.PacketConn, addr net.Addr, b []byte) {
	if _, err := w.WriteTo(b, addr); err != nil {
		r.log.Debug("Write query response.", "error", err, "raddr", addr.String())
	}
}

// parseToken reads the challenge token of an information request. Clients
// send it either as ASCII digits or as a big endian int32.
func parseToken(payload []byte) (int32, bool) {
	trimmed := payload
	if i := bytes.Index(trimmed, []byte{0xff, 0xff, 0xff, 0x01}); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = bytes.TrimRight(trimmed, "\x00")
	if len(trimmed) > 0 {
		if v, err := strconv.ParseInt(string(trimmed), 10, 32); err == nil {
			return int32(v), true
		}
	}
	if len(payload) >= 4 {
		return int32(binary.BigEndian.Uint32(payload[:4])), true
	}
	return 0, false
}

func canonicalHost(host string) string {
	if host == "" {
		return "0.0.0.0"
	}
	return host
}
