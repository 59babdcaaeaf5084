package run

// ErrNotFound is returned when a run doesn't exist in the registry.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	if e.ID == "" {
		return "run not found"
	}

	return "run not found: " + e.ID
}
