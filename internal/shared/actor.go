package shared

// Actor is the authenticated user as seen by domain operations. It replaces
// ambient current-user lookups: handlers resolve it once per request and
// pass it down explicitly.
type Actor struct {
	ID             int64
	Email          string
	Name           string
	SuperAdmin     bool
	Admin          bool
	Operational    bool
	HomeLocationID *int64
	// LocationIDs are the locations the actor is operationally associated
	// with. Empty for a non-admin means the actor sees nothing.
	LocationIDs []int64
}

// IsSuperAdmin reports unrestricted visibility.
func (a *Actor) IsSuperAdmin() bool {
	return a != nil && a.SuperAdmin
}

// IsAdmin reports back-office administration rights.
func (a *Actor) IsAdmin() bool {
	return a != nil && (a.Admin || a.SuperAdmin)
}

// VisibleLocationIDs returns the location set used for scoping queries.
func (a *Actor) VisibleLocationIDs() []int64 {
	if a == nil {
		return nil
	}
	return a.LocationIDs
}

// PinnedLocationID returns the location a non-admin's records are pinned
// to: the home location when set, else the first operational assignment.
func (a *Actor) PinnedLocationID() (int64, bool) {
	if a == nil {
		return 0, false
	}
	if a.HomeLocationID != nil {
		return *a.HomeLocationID, true
	}
	if len(a.LocationIDs) > 0 {
		return a.LocationIDs[0], true
	}
	return 0, false
}
