package modem

// Access to the latched received telegram. The modem keeps the payload of the
// most recent telegram; a newer one replaces it.

// HasPacket reports whether a received telegram is waiting to be collected.
func (m *Modem) HasPacket() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasPacket
}

// Packet copies the latched telegram payload into dst and returns its length.
// The telegram stays latched; use TakePacket or DropPacket to clear it.
func (m *Modem) Packet(dst []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasPacket {
		return 0, ErrNoPacket
	}
	if len(dst) < len(m.packet) {
		return 0, ErrBufferTooSmall
	}
	return copy(dst, m.packet), nil
}

// TakePacket returns a copy of the latched telegram payload and clears the
// latch.
func (m *Modem) TakePacket() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasPacket {
		return nil, ErrNoPacket
	}
	p := make([]byte, len(m.packet))
	copy(p, m.packet)
	m.hasPacket = false
	return p, nil
}

// DropPacket discards the latched telegram, if any.
func (m *Modem) DropPacket() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasPacket = false
}
