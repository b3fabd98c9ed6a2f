package config

import "time"

// NopeaConfig is the top-level configuration for a nopea process.
type NopeaConfig struct {
	APIPort           int           `yaml:"apiPort,omitempty"`
	K8sModule         string        `yaml:"k8sModule,omitempty"`
	CDEventsEndpoint  string        `yaml:"cdEventsEndpoint,omitempty"`
	ClusterEnabled    bool          `yaml:"clusterEnabled,omitempty"`
	DecayInterval     time.Duration `yaml:"decayInterval,omitempty"`
	IdleTimeout       time.Duration `yaml:"idleTimeout,omitempty"`
	AutoCanaryThreshold float64     `yaml:"autoCanaryThreshold,omitempty"`
	// QueueCapacity is the per-agent bounded FIFO waiter limit.
	QueueCapacity int `yaml:"queueCapacity,omitempty"`
	// CrashCooldown is how long an agent waits after a worker crash
	// before draining the next queued waiter.
	CrashCooldown time.Duration `yaml:"crashCooldown,omitempty"`
}
