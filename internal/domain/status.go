package domain

type (
	DependencyCheckStatus string

	LivenessResponseStatus string

	ReadinessResponseStatus string

	HealthResponseStatus string
)

const (
	DependencyCheckStatusHealthy   DependencyCheckStatus = "healthy"
	DependencyCheckStatusDegraded  DependencyCheckStatus = "degraded"
	DependencyCheckStatusUnhealthy DependencyCheckStatus = "unhealthy"
)

const (
	LivenessResponseStatusAlive    LivenessResponseStatus = "alive"
	LivenessResponseStatusDegraded LivenessResponseStatus = "degraded"
	LivenessResponseStatusDead     LivenessResponseStatus = "dead"
)

const (
	ReadinessResponseStatusReady    ReadinessResponseStatus = "ready"
	ReadinessResponseStatusDegraded ReadinessResponseStatus = "degraded"
	ReadinessResponseStatusNotReady ReadinessResponseStatus = "not_ready"
)

const (
	HealthResponseStatusHealthy   HealthResponseStatus = "healthy"
	HealthResponseStatusDegraded  HealthResponseStatus = "degraded"
	HealthResponseStatusUnhealthy HealthResponseStatus = "unhealthy"
)

// Serving reports whether a liveness probe should pass.
func (s LivenessResponseStatus) Serving() bool {
	return s == LivenessResponseStatusAlive || s == LivenessResponseStatusDegraded
}

func (s ReadinessResponseStatus) Serving() bool {
	return s == ReadinessResponseStatusReady || s == ReadinessResponseStatusDegraded
}

func (s HealthResponseStatus) Serving() bool {
	return s == HealthResponseStatusHealthy || s == HealthResponseStatusDegraded
}

// ReadinessFrom derives readiness from the broker and the optional
// management API. Only the broker can take the service out of rotation.
func ReadinessFrom(broker, management DependencyCheckStatus) ReadinessResponseStatus {
	switch {
	case broker == DependencyCheckStatusUnhealthy:
		return ReadinessResponseStatusNotReady
	case management == DependencyCheckStatusUnhealthy:
		return ReadinessResponseStatusDegraded
	default:
		return ReadinessResponseStatusReady
	}
}

func HealthFrom(broker, management DependencyCheckStatus) HealthResponseStatus {
	switch ReadinessFrom(broker, management) {
	case ReadinessResponseStatusNotReady:
		return HealthResponseStatusUnhealthy
	case ReadinessResponseStatusDegraded:
		return HealthResponseStatusDegraded
	default:
		return HealthResponseStatusHealthy
	}
}
