package daemon

// StartOptions configures the daemon (home, port, DB, metrics).
type StartOptions struct {
	Home       string
	Port       int
	Dev        bool
	PprofAddr  string
	APIKey     string // if set, require X-API-Key on non-health routes (NEXUS_API_KEY env also works)
	HumanName  string // display name for /config; falls back to config.yaml, then "human"
	DBDriver   string // "sqlite" (default) or "postgres"
	DBURL      string // for postgres: connection string (or DATABASE_URL env)
	EnableOtel bool   // enable OpenTelemetry metrics (Prometheus exporter + HTTP/SSE/task instrumentation)
}

// StatusInfo is the result of Status (running or not, PID, listen addr).
type StatusInfo struct {
	Running bool
	PID     int
	Addr    string
}
