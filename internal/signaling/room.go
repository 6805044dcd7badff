package signaling

import "time"

// maxOccupants is the hard cap on room membership. The pairing protocol
// is strictly two-party; slot 0 is the creator and handshake initiator.
const maxOccupants = 2

// Room represents a single pairing context. Occupant order is fixed once
// both slots are filled: it determines the initiator/responder roles and
// is never renegotiated.
type Room struct {
	// ID is the short join code identifying the room.
	ID string

	// Occupants are the connected clients, in join order.
	Occupants []*Client

	// CreatedAt records when the room was allocated.
	CreatedAt time.Time
}

// Full reports whether both occupant slots are taken.
func (r *Room) Full() bool {
	return len(r.Occupants) >= maxOccupants
}

// Has reports whether c already occupies a slot in the room.
func (r *Room) Has(c *Client) bool {
	return r.Slot(c) >= 0
}

// Slot returns c's slot index, or -1 if c is not an occupant.
// Slot 0 is the creator, which makes it the handshake initiator.
func (r *Room) Slot(c *Client) int {
	for i, occ := range r.Occupants {
		if occ.ID == c.ID {
			return i
		}
	}
	return -1
}

// Others returns every occupant except c, in slot order.
func (r *Room) Others(c *Client) []*Client {
	out := make([]*Client, 0, len(r.Occupants))
	for _, occ := range r.Occupants {
		if occ.ID != c.ID {
			out = append(out, occ)
		}
	}
	return out
}

// remove drops c from the occupant list, preserving the order of the
// remaining occupants. It reports whether c was present.
func (r *Room) remove(c *Client) bool {
	for i, occ := range r.Occupants {
		if occ.ID == c.ID {
			r.Occupants = append(r.Occupants[:i], r.Occupants[i+1:]...)
			return true
		}
	}
	return false
}
