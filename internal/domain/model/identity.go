package model

// Identity is the caller as seen by reservations and orders: an authenticated holder,
// an anonymous cart session, or both when an anonymous cart later signs in.
type Identity struct {
	HolderID  string
	SessionID string
}

// Empty reports whether the caller carries no identifier at all.
func (i Identity) Empty() bool {
	return i.HolderID == "" && i.SessionID == ""
}

// Viewer is an identity plus the privileged flag used for order access checks.
type Viewer struct {
	Identity
	Admin bool
}

// CanView reports whether the viewer may read the order.
func (v Viewer) CanView(o Order) bool {
	if v.Admin {
		return true
	}
	if v.HolderID != "" && o.HolderID == v.HolderID {
		return true
	}
	return v.SessionID != "" && o.SessionID == v.SessionID
}
