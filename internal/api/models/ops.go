package models

// Health represents the liveness or readiness of the service.
type Health struct {
	Status  HealthStatus      `json:"status"`
	Time    Timestamp         `json:"time"`
	Details map[string]string `json:"details,omitempty"`
}

// SystemStatus is the detailed status report including dependencies.
type SystemStatus struct {
	Status     HealthStatus      `json:"status"`
	Time       Timestamp         `json:"time"`
	Subsystems []SubsystemStatus `json:"subsystems"`
	Providers  []ProviderStatus  `json:"providers"`
	// ActiveFlags lists enabled kill switches.
	ActiveFlags []string `json:"activeFlags,omitempty"`
}

// SubsystemStatus represents the status of a subsystem such as the database.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}
