package config

// AuditConfig is the top-level YAML structure.
type AuditConfig struct {
	Version         string            `yaml:"version"`
	Engine          EngineConf        `yaml:"engine"`
	Events          []string          `yaml:"events"` // empty = audit every event
	DefaultResolver string            `yaml:"default_resolver"`
	Resolvers       map[string]string `yaml:"resolvers"` // event name → resolver kind
	Sinks           []SinkConf        `yaml:"sinks"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	EventWorkers   int `yaml:"event_workers"`
	QueueDepth     int `yaml:"queue_depth"`
	EventTimeoutMs int `yaml:"event_timeout_ms"`
}

// SinkConf selects one output for resolved entries.
type SinkConf struct {
	Type string `yaml:"type"`
	Path string `yaml:"path,omitempty"` // file sinks only
}

// Resolver kinds.
const (
	ResolverDefault = "default"
	ResolverUser    = "user"
)

// Sink types.
const (
	SinkLog    = "log"
	SinkStdout = "stdout"
	SinkFile   = "file"
)

// AuditsAll reports whether every event name is audited.
func (c *AuditConfig) AuditsAll() bool {
	return len(c.Events) == 0
}
