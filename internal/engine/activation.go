package engine

// ActivationState is the sequencer's record of which scene objects it has
// switched on. It is the only path through which the sequencer changes a
// handle's active flag. Handles must be comparable (pointer types).
type ActivationState struct {
	active      map[Toggler]bool
	activations map[Toggler]int
}

func NewActivationState() *ActivationState {
	return &ActivationState{
		active:      make(map[Toggler]bool),
		activations: make(map[Toggler]int),
	}
}

func (a *ActivationState) Activate(t Toggler) {
	t.SetActive(true)
	a.active[t] = true
	a.activations[t]++
}

func (a *ActivationState) Deactivate(t Toggler) {
	t.SetActive(false)
	a.active[t] = false
}

func (a *ActivationState) ActivateAll(ts []Toggler) {
	for _, t := range ts {
		a.Activate(t)
	}
}

func (a *ActivationState) DeactivateAll(ts []Toggler) {
	for _, t := range ts {
		a.Deactivate(t)
	}
}

func (a *ActivationState) IsActive(t Toggler) bool { return a.active[t] }

// Activations counts how many times t was switched on during the run.
func (a *ActivationState) Activations(t Toggler) int { return a.activations[t] }
