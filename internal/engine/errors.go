package engine

// InvalidCommandState is a manual command that does not apply to the current position.
// Nothing is mutated when it is returned.
type InvalidCommandState struct {
	Command string
	Reason  string
}

func (e *InvalidCommandState) Error() string {
	return e.Command + ": " + e.Reason
}

var (
	ErrPositionExists = &InvalidCommandState{Command: "buy", Reason: "позиция уже открыта"}
	ErrNoPosition     = &InvalidCommandState{Command: "position", Reason: "нет открытой позиции"}
	ErrTP1AlreadyDone = &InvalidCommandState{Command: "sell_tp1", Reason: "TP1 уже выполнен"}
	ErrTP1NotReached  = &InvalidCommandState{Command: "sell_tp1", Reason: "множитель TP1 не достигнут"}
)
