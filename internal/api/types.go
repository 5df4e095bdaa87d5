package api

import "time"

type User struct {
	Id        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PiholeNode struct {
	Id          int64     `json:"id"`
	Scheme      string    `json:"scheme"`
	Host        string    `json:"host"`
	Port        int       `json:"port"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type AddPiholeParams struct {
	Scheme      string `json:"scheme"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Password    string `json:"password"`
}

// PatchPiholeParams carries an optional value per field; nil means "leave as is".
type PatchPiholeParams struct {
	Scheme      *string `json:"scheme,omitempty"`
	Host        *string `json:"host,omitempty"`
	Port        *int    `json:"port,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Password    *string `json:"password,omitempty"`
}

type TestConnectionParams struct {
	Scheme   string `json:"scheme"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
}

type NodeStatus string

const (
	StatusOnline   NodeStatus = "online"
	StatusDegraded NodeStatus = "degraded"
	StatusOffline  NodeStatus = "offline"
)

type NodeHealth struct {
	Id        int64      `json:"id"`
	Name      string     `json:"name"`
	Status    NodeStatus `json:"status"`
	LatencyMs int        `json:"latencyMs"`
	LastErr   string     `json:"lastErr,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type HealthSummary struct {
	Online    int       `json:"online"`
	Total     int       `json:"total"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PiholeInitStatus string

const (
	PiholeUninitialized PiholeInitStatus = "UNINITIALIZED"
	PiholeAdded         PiholeInitStatus = "ADDED"
	PiholeSkipped       PiholeInitStatus = "SKIPPED"
)

func (s PiholeInitStatus) IsValid() bool {
	switch s {
	case PiholeUninitialized, PiholeAdded, PiholeSkipped:
		return true
	default:
		return false
	}
}

type FullInitStatus struct {
	UserCreated  bool             `json:"userCreated"`
	PiholeStatus PiholeInitStatus `json:"piholeStatus"`
}

type PatchUserParams struct {
	Username *string `json:"username,omitempty"`
}

type UpdatePasswordParams struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
