package workflow

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// ErrUnknownAgent is returned when no prompt is registered for an agent.
var ErrUnknownAgent = errors.New("unknown agent prompt")

// Prompt is a parsed template plus the variables it declares.
type Prompt struct {
	name      string
	variables []string
	tmpl      *template.Template
}

// Variables returns the declared variable names.
func (p *Prompt) Variables() []string {
	return slices.Clone(p.variables)
}

// Render substitutes the declared variables. Values in vars that the prompt
// does not declare are ignored; a declared variable missing from vars is an
// error.
func (p *Prompt) Render(vars map[string]string) (string, error) {
	data := make(map[string]string, len(p.variables))
	for _, name := range p.variables {
		v, ok := vars[name]
		if !ok {
			return "", fmt.Errorf("prompt %s: missing variable %q", p.name, name)
		}
		data[name] = v
	}

	var b strings.Builder
	if err := p.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("prompt %s: %w", p.name, err)
	}
	return b.String(), nil
}

// Catalogue holds the agent prompts and the auxiliary task prompts.
type Catalogue struct {
	agents map[string]*Prompt
	tasks  map[string]*Prompt
}

type promptEntry struct {
	Variables []string `yaml:"variables"`
	Template  string   `yaml:"template"`
}

type catalogueFile struct {
	Agents map[string]promptEntry `yaml:"agents"`
	Tasks  map[string]promptEntry `yaml:"tasks"`
}

// DefaultCatalogue parses the embedded prompt catalogue.
func DefaultCatalogue() (*Catalogue, error) {
	return LoadCatalogue(defaultPrompts)
}

// LoadCatalogue parses a YAML prompt catalogue.
func LoadCatalogue(data []byte) (*Catalogue, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalogue: %w", err)
	}

	agents, err := parsePrompts(file.Agents)
	if err != nil {
		return nil, err
	}
	tasks, err := parsePrompts(file.Tasks)
	if err != nil {
		return nil, err
	}
	return &Catalogue{agents: agents, tasks: tasks}, nil
}

func parsePrompts(entries map[string]promptEntry) (map[string]*Prompt, error) {
	prompts := make(map[string]*Prompt, len(entries))
	for name, entry := range entries {
		tmpl, err := template.New(name).Option("missingkey=error").Parse(entry.Template)
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt %s: %w", name, err)
		}
		prompts[name] = &Prompt{name: name, variables: entry.Variables, tmpl: tmpl}
	}
	return prompts, nil
}

// Agent returns the prompt for an agent node.
func (c *Catalogue) Agent(name string) (*Prompt, error) {
	p, ok := c.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrUnknownAgent, name)
	}
	return p, nil
}

// Task returns an auxiliary prompt such as the deck summary.
func (c *Catalogue) Task(name string) (*Prompt, error) {
	p, ok := c.tasks[name]
	if !ok {
		return nil, fmt.Errorf("unknown task prompt %s", name)
	}
	return p, nil
}
