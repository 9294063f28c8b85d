package simulation

import "github.com/go-gl/mathgl/mgl32"

// PointerKind distinguishes pointer events
type PointerKind int

const (
	// PointerRay carries a world-space ray to resolve against the proxy
	PointerRay PointerKind = iota
	// PointerWorld carries a world-space point already on the surface
	PointerWorld
	// PointerLeave has no payload
	PointerLeave
)

func (k PointerKind) String() string {
	switch k {
	case PointerRay:
		return "ray"
	case PointerWorld:
		return "world"
	case PointerLeave:
		return "leave"
	}
	return "unknown"
}

// PointerEvent is one pointer update from the input collaborator
type PointerEvent struct {
	Kind  PointerKind
	Ray   Ray
	Point mgl32.Vec3
}

// PointerInput is a single-slot mailbox: a newer event replaces an unread
// older one, and the tick takes whatever is latest.
type PointerInput struct {
	ch chan PointerEvent
}

func NewPointerInput() *PointerInput {
	return &PointerInput{ch: make(chan PointerEvent, 1)}
}

// Send posts an event without blocking, dropping any unread older event
func (in *PointerInput) Send(ev PointerEvent) {
	for {
		select {
		case in.ch <- ev:
			return
		default:
		}
		select {
		case <-in.ch:
		default:
		}
	}
}

// MoveRay posts a pointer-move carrying a world-space ray
func (in *PointerInput) MoveRay(r Ray) {
	in.Send(PointerEvent{Kind: PointerRay, Ray: r})
}

// MoveWorld posts a pointer-move carrying a world-space hit point
func (in *PointerInput) MoveWorld(p mgl32.Vec3) {
	in.Send(PointerEvent{Kind: PointerWorld, Point: p})
}

// Leave posts a pointer-leave
func (in *PointerInput) Leave() {
	in.Send(PointerEvent{Kind: PointerLeave})
}

// Latest takes the most recent unread event, if any
func (in *PointerInput) Latest() (PointerEvent, bool) {
	select {
	case ev := <-in.ch:
		return ev, true
	default:
		return PointerEvent{}, false
	}
}
