package infrastructure

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

const (
	httpMethodKey     = "http.method"
	httpPathKey       = "http.path"
	httpStatusCodeKey = "http.status_code"
	statusKey         = "status"
	useCaseKey        = "use_case"
	profileKey        = "messaging.rabbitmq.profile"
	queueKey          = "messaging.destination.name"
	reasonKey         = "reason"
	groupedKey        = "grouped"
)

func HTTPMethodAttr(method string) attribute.KeyValue {
	return attribute.String(httpMethodKey, method)
}

func HTTPPathAttr(path string) attribute.KeyValue {
	return attribute.String(httpPathKey, path)
}

func HTTPStatusCodeAttr(code int) attribute.KeyValue {
	return attribute.String(httpStatusCodeKey, fmt.Sprintf("%d", code))
}

func StatusAttr(status string) attribute.KeyValue {
	return attribute.String(statusKey, status)
}

func UseCaseAttr(name string) attribute.KeyValue {
	return attribute.String(useCaseKey, name)
}

func ProfileAttr(profile string) attribute.KeyValue {
	return attribute.String(profileKey, profile)
}

func QueueAttr(name string) attribute.KeyValue {
	return attribute.String(queueKey, name)
}

func ReasonAttr(reason string) attribute.KeyValue {
	return attribute.String(reasonKey, reason)
}

func GroupedAttr(grouped bool) attribute.KeyValue {
	return attribute.Bool(groupedKey, grouped)
}
