package domain

import (
	"time"
)

type (
	// DependencyStatus represents the health status of a dependency
	DependencyStatus struct {
		Status       DependencyCheckStatus `json:"status"`
		ResponseTime float32               `json:"response_time_ms"`
		LastChecked  time.Time             `json:"last_checked"`
		Error        string                `json:"error,omitempty"`
		Details      map[string]any        `json:"details,omitempty"`
	}

	// LivenessResult contains liveness check results
	LivenessResult struct {
		OverallStatus LivenessResponseStatus `json:"status"`
		Broker        DependencyStatus       `json:"broker"`
	}

	// ReadinessResult contains readiness check results
	ReadinessResult struct {
		OverallStatus ReadinessResponseStatus `json:"status"`
		Broker        DependencyStatus        `json:"broker"`
		Management    DependencyStatus        `json:"management"`
	}

	// HealthResult contains comprehensive health check results
	HealthResult struct {
		OverallStatus HealthResponseStatus `json:"status"`
		Broker        DependencyStatus     `json:"broker"`
		Management    DependencyStatus     `json:"management"`
		Uptime        float32              `json:"uptime_seconds"`
	}
)
