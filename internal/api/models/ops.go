package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status     HealthStatus      `json:"status"`
	Time       Timestamp         `json:"time"`
	Subsystems []SubsystemStatus `json:"subsystems"`
	Legs       []LegStatus       `json:"legs"`
	Providers  []ProviderStatus  `json:"providers"`
}

// LegStatus says how one forecast leg (forecast or marine) is being served.
type LegStatus struct {
	Leg              string       `json:"leg"`
	Status           HealthStatus `json:"status"`
	Mode             string       `json:"mode"`
	ServingFromCache bool         `json:"servingFromCache"`
	Since            *Timestamp   `json:"since,omitempty"`
	LastErrorKind    *string      `json:"lastErrorKind,omitempty"`
	Message          *string      `json:"message,omitempty"`
}

// SubsystemStatus represents the status of a subsystem.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// ProviderStatus represents the status of a forecast provider.
type ProviderStatus struct {
	Provider            string       `json:"provider"`
	Leg                 string       `json:"leg"`
	Status              HealthStatus `json:"status"`
	CircuitState        string       `json:"circuitState"`
	Requests            uint32       `json:"requests"`
	ConsecutiveFailures uint32       `json:"consecutiveFailures"`
	LastSuccessAt       *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *Timestamp   `json:"lastFailureAt,omitempty"`
	LastErrorKind       *string      `json:"lastErrorKind,omitempty"`
	Message             *string      `json:"message,omitempty"`
}
