package models

// Actor is the identity an operation runs as. The zero value is anonymous.
type Actor struct {
	Username string
	Admin    bool
}

// Anonymous returns the actor used when no identity could be resolved.
func Anonymous() Actor {
	return Actor{}
}

// IsAnonymous reports whether no identity is attached.
func (a Actor) IsAnonymous() bool {
	return a.Username == ""
}
