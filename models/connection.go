package models

// ConnectionMode names the store the data layer is currently routed to.
type ConnectionMode string

const (
	ModePrimary   ConnectionMode = "primary"
	ModeSecondary ConnectionMode = "secondary"
)
