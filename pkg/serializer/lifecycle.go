package serializer

// Phase is a step of the per-instance call sequence driven by the sink.
type Phase int

const (
	PhaseUnconfigured Phase = iota
	PhaseConfigured
	PhaseInitialized
	PhaseArmed
	PhaseDrained
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseUnconfigured:
		return "unconfigured"
	case PhaseConfigured:
		return "configured"
	case PhaseInitialized:
		return "initialized"
	case PhaseArmed:
		return "armed"
	case PhaseDrained:
		return "drained"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// state is the tagged lifecycle value. body is only set while armed.
// Transitions never mutate the receiver.
type state struct {
	phase Phase
	body  []byte
}

func (s state) in(phases ...Phase) bool {
	for _, p := range phases {
		if s.phase == p {
			return true
		}
	}
	return false
}

func (s state) violation(op string) error {
	return &InvariantError{Op: op, Phase: s.phase}
}

func (s state) configure() (state, error) {
	if s.phase != PhaseUnconfigured {
		return s, s.violation("Configure")
	}
	return state{phase: PhaseConfigured}, nil
}

func (s state) initialize() (state, error) {
	if s.phase != PhaseConfigured {
		return s, s.violation("Initialize")
	}
	return state{phase: PhaseInitialized}, nil
}

// arm replaces any previously set event.
func (s state) arm(body []byte) (state, error) {
	if !s.in(PhaseInitialized, PhaseArmed, PhaseDrained) {
		return s, s.violation("SetEvent")
	}
	return state{phase: PhaseArmed, body: body}, nil
}

// drain hands out the armed body exactly once.
func (s state) drain() (state, []byte, error) {
	if s.phase != PhaseArmed {
		return s, nil, s.violation("Actions")
	}
	return state{phase: PhaseDrained}, s.body, nil
}

func (s state) requireEvent(op string) error {
	if !s.in(PhaseArmed, PhaseDrained) {
		return s.violation(op)
	}
	return nil
}

func (s state) close() state {
	return state{phase: PhaseClosed}
}
