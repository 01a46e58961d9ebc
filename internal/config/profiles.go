package config

import (
	"fmt"
	"strings"
)

// Profiles maps profile names to broker URLs. It decodes from
// "name=url;name=url", since URLs contain the ':' envconfig uses for maps.
type Profiles map[string]string

func (p *Profiles) Decode(value string) error {
	profiles := make(Profiles)

	for _, pair := range strings.Split(value, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		name, url, ok := strings.Cut(pair, "=")
		name, url = strings.TrimSpace(name), strings.TrimSpace(url)

		if !ok || name == "" || url == "" {
			return fmt.Errorf("invalid RabbitMQ profile %q, expected name=url", pair)
		}

		if _, exists := profiles[name]; exists {
			return fmt.Errorf("duplicate RabbitMQ profile %q", name)
		}

		profiles[name] = url
	}

	*p = profiles

	return nil
}
