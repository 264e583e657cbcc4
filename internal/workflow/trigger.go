package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerLoad         Trigger = "LOAD"
	TriggerSubmit       Trigger = "SUBMIT"
	TriggerReject       Trigger = "REJECT"
	TriggerAccept       Trigger = "ACCEPT"
	TriggerPersisted    Trigger = "PERSISTED"
	TriggerRendered     Trigger = "RENDERED"
	TriggerRenderFailed Trigger = "RENDER_FAILED"
	TriggerReset        Trigger = "RESET"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
