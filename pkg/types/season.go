package types

import "time"

// Application statuses.
const (
	ApplicationPending  = "pending"
	ApplicationAccepted = "accepted"
	ApplicationRejected = "rejected"
)

// Season is an entry in the season registry.
type Season struct {
	SeasonID  string    `json:"seasonId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Application is a participant's application to a season.
type Application struct {
	SeasonID      string    `json:"seasonId"`
	ParticipantID string    `json:"participantId"`
	Status        string    `json:"status"`
	AppliedAt     time.Time `json:"appliedAt"`
}

// Group is a platform role whose members can seed a castlist.
type Group struct {
	GroupID string `json:"groupId"`
	Name    string `json:"name"`
}
