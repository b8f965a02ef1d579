package graph

// State is the shared state of one workflow run. The input fields are set
// before the run and never modified; the three output maps are written by the
// runner between rounds. A State is owned by exactly one run.
type State struct {
	Context      string
	Target       string
	Metadata     string
	Transcript   string
	DeckText     string
	DeckSummary  string
	AudioSummary string

	Agents        map[string]map[string]any
	AgentRaw      map[string]string
	AgentWarnings map[string][]string
}

// NewState returns a State with empty output maps.
func NewState() *State {
	return &State{
		Agents:        make(map[string]map[string]any),
		AgentRaw:      make(map[string]string),
		AgentWarnings: make(map[string][]string),
	}
}

// NodeResult is the output of one node. Only Parsed is visible to
// dependent nodes.
type NodeResult struct {
	Parsed   map[string]any
	Raw      string
	Warnings []string
}
