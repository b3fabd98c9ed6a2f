package config

import "time"

// Default returns nopea's hard-coded defaults, the base every loaded
// config layer is merged onto.
func Default() NopeaConfig {
	return NopeaConfig{
		APIPort:             4000,
		K8sModule:           "controller-runtime",
		CDEventsEndpoint:    "",
		ClusterEnabled:      false,
		DecayInterval:       time.Hour,
		IdleTimeout:         10 * time.Minute,
		AutoCanaryThreshold: 0.15,
		QueueCapacity:       10,
		CrashCooldown:       2 * time.Second,
	}
}
