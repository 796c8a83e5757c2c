package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/config"
	"github.com/lex00/strapi-aws-go/internal/graph"
	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/internal/template"
)

// ManifestFile is written next to the templates.
const ManifestFile = "manifest.json"

// Reference passes a producer stack output into a consumer stack parameter.
type Reference struct {
	Producer  string `json:"producer"`
	Output    string `json:"output"`
	Consumer  string `json:"consumer"`
	Parameter string `json:"parameter"`
}

// ImageAsset describes the container image for an external builder.
type ImageAsset struct {
	URI        string            `json:"uri,omitempty"`
	Directory  string            `json:"directory"`
	Dockerfile string            `json:"dockerfile"`
	Platform   string            `json:"platform"`
	BuildArgs  map[string]string `json:"buildArgs,omitempty"`
}

// Artifact is one synthesized stack.
type Artifact struct {
	Stack *stack.Stack
	// DeployName is the CloudFormation stack name.
	DeployName string
	Template   *wetwire.Template
	Graph      *graph.Graph
}

// Assembly is the synthesized application.
type Assembly struct {
	Application string
	// Stacks are in deploy order.
	Stacks     []*Artifact
	References []Reference
	Image      ImageAsset
	// Parameters are values known at synthesis, per stack.
	Parameters map[string]map[string]string
	// ZoneLookup is the zone to resolve into HostedZoneId parameters, empty
	// when the ID was configured.
	ZoneLookup string
	Components *Components
}

func (a *Assembly) setParameter(stackName, param, value string) {
	if a.Parameters[stackName] == nil {
		a.Parameters[stackName] = map[string]string{}
	}
	a.Parameters[stackName][param] = value
}

func (a *Assembly) build(cfg *config.Config, stacks ...*stack.Stack) error {
	byName := make(map[string]*Artifact, len(stacks))
	deps := graph.New()
	for _, s := range stacks {
		b := template.NewBuilder(s)
		g, err := b.Graph()
		if err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
		tmpl, err := b.Build()
		if err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
		byName[s.Name] = &Artifact{Stack: s, DeployName: cfg.StackName(s.Name), Template: tmpl, Graph: g}
		if err := deps.AddNode(graph.Node{ID: s.Name, Kind: graph.KindStack, Stack: s.Name}); err != nil {
			return err
		}
	}

	for _, ref := range a.References {
		producer, ok := byName[ref.Producer]
		if !ok {
			return fmt.Errorf("reference from unknown stack %s", ref.Producer)
		}
		consumer, ok := byName[ref.Consumer]
		if !ok {
			return fmt.Errorf("reference to unknown stack %s", ref.Consumer)
		}
		if _, ok := producer.Template.Outputs[ref.Output]; !ok {
			return fmt.Errorf("%s has no output %s", ref.Producer, ref.Output)
		}
		if _, ok := consumer.Template.Parameters[ref.Parameter]; !ok {
			return fmt.Errorf("%s has no parameter %s", ref.Consumer, ref.Parameter)
		}
		if err := deps.AddEdge(graph.Edge{From: ref.Producer, To: ref.Consumer, Kind: graph.EdgeCrossStack, Field: ref.Output}); err != nil {
			return err
		}
	}

	order, err := deps.Order()
	if err != nil {
		return err
	}
	for _, name := range order {
		a.Stacks = append(a.Stacks, byName[name])
	}
	return nil
}

// Stack returns the artifact of a stack by logical name.
func (a *Assembly) Stack(name string) (*Artifact, bool) {
	for _, s := range a.Stacks {
		if s.Stack.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Order returns stack names in deploy order.
func (a *Assembly) Order() []string {
	out := make([]string, len(a.Stacks))
	for i, s := range a.Stacks {
		out[i] = s.Stack.Name
	}
	return out
}

// TeardownOrder returns stack names in destroy order.
func (a *Assembly) TeardownOrder() []string {
	order := a.Order()
	out := make([]string, len(order))
	for i, name := range order {
		out[len(order)-1-i] = name
	}
	return out
}

// Templates returns every template by stack name.
func (a *Assembly) Templates() map[string]*wetwire.Template {
	out := make(map[string]*wetwire.Template, len(a.Stacks))
	for _, s := range a.Stacks {
		out[s.Stack.Name] = s.Template
	}
	return out
}

// Graph merges the stack graphs into one, with IDs qualified as
// "Stack/LogicalID" and cross-stack edges from the resource behind each
// producer output to the consuming parameter.
func (a *Assembly) Graph() (*graph.Graph, error) {
	g := graph.New()
	for _, s := range a.Stacks {
		for _, n := range s.Graph.Nodes() {
			n.ID = s.Stack.Name + "/" + n.ID
			if err := g.AddNode(n); err != nil {
				return nil, err
			}
		}
		for _, e := range s.Graph.Edges() {
			e.From = s.Stack.Name + "/" + e.From
			e.To = s.Stack.Name + "/" + e.To
			if err := g.AddEdge(e); err != nil {
				return nil, err
			}
		}
	}
	for _, ref := range a.References {
		producer, _ := a.Stack(ref.Producer)
		from := ref.Producer + "/" + ref.Output
		if target, ok := template.Target(producer.Template.Outputs[ref.Output].Value); ok {
			from = ref.Producer + "/" + target
		}
		if err := g.AddEdge(graph.Edge{
			From:  from,
			To:    ref.Consumer + "/" + ref.Parameter,
			Kind:  graph.EdgeCrossStack,
			Field: ref.Output,
		}); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// ManifestStack is one stack's entry in the manifest.
type ManifestStack struct {
	StackName    string            `json:"stackName"`
	Account      string            `json:"account,omitempty"`
	Region       string            `json:"region"`
	TemplateFile string            `json:"templateFile"`
	Parameters   map[string]string `json:"parameters,omitempty"`
}

// Manifest describes a written assembly.
type Manifest struct {
	Version     string                   `json:"version"`
	Application string                   `json:"application"`
	Order       []string                 `json:"order"`
	Stacks      map[string]ManifestStack `json:"stacks"`
	References  []Reference              `json:"references"`
	Image       ImageAsset               `json:"image"`
	ZoneLookup  string                   `json:"zoneLookup,omitempty"`
}

// Manifest returns the manifest for templates written in format.
func (a *Assembly) Manifest(format string) Manifest {
	m := Manifest{
		Version:     "1",
		Application: a.Application,
		Order:       a.Order(),
		Stacks:      make(map[string]ManifestStack, len(a.Stacks)),
		References:  a.References,
		Image:       a.Image,
		ZoneLookup:  a.ZoneLookup,
	}
	for _, s := range a.Stacks {
		m.Stacks[s.Stack.Name] = ManifestStack{
			StackName:    s.DeployName,
			Account:      s.Stack.Env.Account,
			Region:       s.Stack.Env.Region,
			TemplateFile: TemplateFile(s.Stack.Name, format),
			Parameters:   a.Parameters[s.Stack.Name],
		}
	}
	return m
}

// TemplateFile is the file name of a stack's template.
func TemplateFile(stackName, format string) string {
	ext := "json"
	if format == "yaml" {
		ext = "yaml"
	}
	return stackName + ".template." + ext
}

// Write writes every template and the manifest into dir and returns the
// written paths, sorted.
func (a *Assembly) Write(dir, format string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	var files []string
	for _, s := range a.Stacks {
		data, err := Encode(s.Template, format)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", s.Stack.Name, err)
		}
		path := filepath.Join(dir, TemplateFile(s.Stack.Name, format))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		files = append(files, path)
	}

	data, err := json.MarshalIndent(a.Manifest(format), "", "  ")
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	files = append(files, path)
	sort.Strings(files)
	return files, nil
}

// Encode renders a template as JSON or YAML.
func Encode(t *wetwire.Template, format string) ([]byte, error) {
	if format == "yaml" {
		return template.ToYAML(t)
	}
	data, err := template.ToJSON(t)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
