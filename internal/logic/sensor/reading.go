package sensor

// Reading is the filtered state of all four channels.
type Reading struct {
	Top    ChannelState
	Bottom ChannelState
	Left   ChannelState
	Right  ChannelState
}

// AnyActive reports whether any channel is Active.
// Saturated channels never count as active.
func (r Reading) AnyActive() bool {
	return r.Top == Active || r.Bottom == Active || r.Left == Active || r.Right == Active
}

// NoneActive reports whether no channel is Active.
func (r Reading) NoneActive() bool {
	return !r.AnyActive()
}

// Direction is a coarse beacon bearing derived from opposing channel pairs.
type Direction int

const (
	DirCenter Direction = iota // both pairs balanced, no clear bias
	DirLeft
	DirRight
	DirUp
	DirDown
	DirUpLeft
	DirUpRight
	DirDownLeft
	DirDownRight
	DirNone // no signal at all
)

func (d Direction) String() string {
	switch d {
	case DirCenter:
		return "center"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirUpLeft:
		return "up-left"
	case DirUpRight:
		return "up-right"
	case DirDownLeft:
		return "down-left"
	case DirDownRight:
		return "down-right"
	case DirNone:
		return "none"
	default:
		return "unknown"
	}
}

// Direction derives the coarse bearing from the reading. A pair with both
// channels active (or both inactive) contributes no bias on its axis.
func (r Reading) Direction() Direction {
	if r.NoneActive() {
		return DirNone
	}

	l := r.Left == Active
	ri := r.Right == Active
	u := r.Top == Active
	d := r.Bottom == Active

	h := 0 // -1 = left, +1 = right
	if l && !ri {
		h = -1
	}
	if ri && !l {
		h = +1
	}

	v := 0 // -1 = up, +1 = down
	if u && !d {
		v = -1
	}
	if d && !u {
		v = +1
	}

	switch {
	case h == -1 && v == -1:
		return DirUpLeft
	case h == -1 && v == 0:
		return DirLeft
	case h == -1 && v == +1:
		return DirDownLeft
	case h == 0 && v == -1:
		return DirUp
	case h == 0 && v == +1:
		return DirDown
	case h == +1 && v == -1:
		return DirUpRight
	case h == +1 && v == 0:
		return DirRight
	case h == +1 && v == +1:
		return DirDownRight
	}
	return DirCenter
}
