package codec

import "github.com/google/uuid"

// Guid is a 16-byte OPC UA Guid. Its wire layout is Microsoft's mixed-endian
// representation (the first three fields little-endian, the last two
// big-endian); in memory it's backed by google/uuid so the rest of the
// stack can use uuid.UUID's helpers (String, New, Parse) directly.
type Guid uuid.UUID

// NewGuid mints a fresh random Guid.
func NewGuid() Guid {
	return Guid(uuid.New())
}

func (g Guid) String() string { return uuid.UUID(g).String() }

// WriteGuid writes g in OPC UA's mixed-endian wire layout.
func (e *Encoder) WriteGuid(g Guid) error {
	var wire [16]byte
	// Data1 (uint32), Data2 (uint16), Data3 (uint16): little-endian.
	wire[0], wire[1], wire[2], wire[3] = g[3], g[2], g[1], g[0]
	wire[4], wire[5] = g[5], g[4]
	wire[6], wire[7] = g[7], g[6]
	// Data4 (8 bytes): transmitted as-is (big-endian/network order).
	copy(wire[8:], g[8:16])
	return e.write(wire[:])
}

// ReadGuid reads a Guid in OPC UA's mixed-endian wire layout.
func (d *Decoder) ReadGuid() (Guid, error) {
	var wire [16]byte
	if err := d.read(wire[:]); err != nil {
		return Guid{}, err
	}
	var g Guid
	g[0], g[1], g[2], g[3] = wire[3], wire[2], wire[1], wire[0]
	g[4], g[5] = wire[5], wire[4]
	g[6], g[7] = wire[7], wire[6]
	copy(g[8:16], wire[8:])
	return g, nil
}
