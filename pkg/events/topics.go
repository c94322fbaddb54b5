package events

const TopicOrchestrateEvents = "orchestrate.events"

const (
	TypeDispatchStarted  = "dispatch.run.started"
	TypeDispatchFinished = "dispatch.run.finished"
	TypeServiceStarted   = "dispatch.service.started"
	TypeServiceFinished  = "dispatch.service.finished"

	TypeGateRound    = "gate.round"
	TypeGateCheckUp  = "gate.check.ready"
	TypeGateFinished = "gate.finished"

	TypeBootstrapStarted  = "bootstrap.body.started"
	TypeBootstrapFinished = "bootstrap.body.finished"
)
