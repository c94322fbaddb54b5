package events

import "time"

type DispatchStarted struct {
	RunID    string    `json:"run_id"`
	Verb     string    `json:"verb"`
	Target   string    `json:"target"`
	Backend  string    `json:"backend"`
	Services []string  `json:"services"`
	DryRun   bool      `json:"dry_run,omitempty"`
	At       time.Time `json:"at"`
}

type DispatchFinished struct {
	RunID      string    `json:"run_id"`
	Ok         bool      `json:"ok"`
	At         time.Time `json:"at"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type ServiceStarted struct {
	RunID   string    `json:"run_id"`
	Service string    `json:"service"`
	Command string    `json:"command"`
	At      time.Time `json:"at"`
}

type ServiceFinished struct {
	RunID      string    `json:"run_id"`
	Service    string    `json:"service"`
	Status     string    `json:"status"`
	At         time.Time `json:"at"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type GateRound struct {
	Round   int       `json:"round"`
	Pending []string  `json:"pending"`
	At      time.Time `json:"at"`
}

type GateCheckReady struct {
	Check string    `json:"check"`
	Round int       `json:"round"`
	At    time.Time `json:"at"`
}

type GateFinished struct {
	Status     string    `json:"status"`
	Pending    []string  `json:"pending,omitempty"`
	Service    string    `json:"service,omitempty"`
	Error      string    `json:"error,omitempty"`
	Rounds     int       `json:"rounds"`
	At         time.Time `json:"at"`
	DurationMs int64     `json:"duration_ms,omitempty"`
}

type BootstrapStarted struct {
	Job string    `json:"job"`
	At  time.Time `json:"at"`
}

type BootstrapFinished struct {
	Job      string    `json:"job"`
	Ok       bool      `json:"ok"`
	ExitCode int       `json:"exit_code"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}
