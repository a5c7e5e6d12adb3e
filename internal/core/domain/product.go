package domain

import (
	"encoding/json"
	"slices"
)

// Action is one tool invocation step of a product.
type Action struct {
	Tool    string
	Inputs  GlobSet
	Outputs GlobSet
	Options Options
}

// Equal reports structural equality.
func (a Action) Equal(other Action) bool {
	return a.Tool == other.Tool &&
		a.Inputs.Equal(other.Inputs) &&
		a.Outputs.Equal(other.Outputs) &&
		a.Options.Equal(other.Options)
}

// Product is a named build goal. Products are never mutated: a changed definition
// produces a new Product that supersedes the old one.
type Product struct {
	Name         string
	Doc          string
	Source       string
	Inputs       GlobSet
	Outputs      GlobSet
	Actions      []Action
	Intermediate bool
}

// ProductOption configures NewProduct.
type ProductOption func(*productConfig)

type productConfig struct {
	doc          string
	source       string
	inputs       *GlobSet
	outputs      *GlobSet
	intermediate bool
}

// WithDoc sets the product documentation.
func WithDoc(doc string) ProductOption {
	return func(c *productConfig) { c.doc = doc }
}

// WithSource records the plan file that defines the product.
func WithSource(path string) ProductOption {
	return func(c *productConfig) { c.source = path }
}

// WithInputs overrides the inputs derived from the actions.
func WithInputs(inputs GlobSet) ProductOption {
	return func(c *productConfig) { c.inputs = &inputs }
}

// WithOutputs overrides the outputs derived from the actions.
func WithOutputs(outputs GlobSet) ProductOption {
	return func(c *productConfig) { c.outputs = &outputs }
}

// AsIntermediate marks the product as intermediate.
func AsIntermediate() ProductOption {
	return func(c *productConfig) { c.intermediate = true }
}

// NewProduct creates a product. Unless overridden, inputs and outputs are the union
// of the actions' inputs and outputs.
func NewProduct(name string, actions []Action, opts ...ProductOption) *Product {
	var cfg productConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Product{
		Name:         name,
		Doc:          cfg.doc,
		Source:       cfg.source,
		Actions:      slices.Clone(actions),
		Intermediate: cfg.intermediate,
	}
	if cfg.inputs != nil {
		p.Inputs = *cfg.inputs
	} else {
		for _, a := range actions {
			p.Inputs = p.Inputs.Union(a.Inputs)
		}
	}
	if cfg.outputs != nil {
		p.Outputs = *cfg.outputs
	} else {
		for _, a := range actions {
			p.Outputs = p.Outputs.Union(a.Outputs)
		}
	}
	return p
}

// EndPoints returns the glob shape of the product.
func (p *Product) EndPoints() EndPoints {
	return EndPoints{Sources: p.Inputs, Targets: p.Outputs}
}

// Tools returns the distinct tool names used by the actions, sorted.
func (p *Product) Tools() []string {
	tools := make([]string, 0, len(p.Actions))
	for _, a := range p.Actions {
		tools = append(tools, a.Tool)
	}
	slices.Sort(tools)
	return slices.Compact(tools)
}

// UsesTool reports whether any action runs the named tool.
func (p *Product) UsesTool(tool string) bool {
	for _, a := range p.Actions {
		if a.Tool == tool {
			return true
		}
	}
	return false
}

// DefinitionHash fingerprints everything about the product that affects what its
// actions produce: the glob shape and every action with its options.
func (p *Product) DefinitionHash() Hash {
	def := struct {
		Inputs  GlobSet  `json:"inputs"`
		Outputs GlobSet  `json:"outputs"`
		Actions []Action `json:"actions"`
	}{p.Inputs, p.Outputs, p.Actions}
	// Options, GlobSet and the scalar option values always marshal.
	data, _ := json.Marshal(def)
	return HashBytes(data)
}

// Equal reports whether two products have the same definition.
func (p *Product) Equal(other *Product) bool {
	if p == other {
		return true
	}
	if p == nil || other == nil {
		return false
	}
	return p.Name == other.Name &&
		p.Doc == other.Doc &&
		p.Source == other.Source &&
		p.Intermediate == other.Intermediate &&
		p.Inputs.Equal(other.Inputs) &&
		p.Outputs.Equal(other.Outputs) &&
		slices.EqualFunc(p.Actions, other.Actions, Action.Equal)
}

// EndPoints is the (sources, targets) glob shape of a product. Products with the same
// shape share overlap computations.
type EndPoints struct {
	Sources GlobSet
	Targets GlobSet
}

// EndPointsKey identifies EndPoints by content.
type EndPointsKey struct {
	sources GlobSetKey
	targets GlobSetKey
}

// Key returns the content key of the shape.
func (e EndPoints) Key() EndPointsKey {
	return EndPointsKey{sources: e.Sources.Key(), targets: e.Targets.Key()}
}

// Feeds reports whether something e produces can be consumed by other.
func (e EndPoints) Feeds(other EndPoints) bool {
	return other.Sources.Overlaps(e.Targets)
}
