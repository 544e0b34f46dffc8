package render

const (
	// Instance states
	StateProvisioning = "provisioning"
	StateBooting      = "booting"
	StateInstalling   = "installing"
	StateStarting     = "starting"
	StateReady        = "ready"
	StateDraining     = "draining"
	StateTerminating  = "terminating"
	StateTerminated   = "terminated"
	StateArchived     = "archived"
	StateUnavailable  = "unavailable"

	// Action states
	ActionSuccess    = "success"
	ActionFailed     = "failed"
	ActionInProgress = "in_progress"

	// Display values
	MissingValue = "<none>"
	NAValue      = "n/a"
	UnknownValue = "<unknown>"
	ZeroValue    = "0"
	Blank        = ""
)
