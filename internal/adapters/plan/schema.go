package plan

import "github.com/hashicorp/hcl/v2"

// planFile is the top-level structure of a kiln.hcl file.
type planFile struct {
	Products []*productBlock `hcl:"product,block"`
}

// productBlock is a product "<name>" block. Inputs and outputs are expressions so
// an absent attribute can be told apart from an empty list.
type productBlock struct {
	Name         string         `hcl:"name,label"`
	Doc          string         `hcl:"doc,optional"`
	Inputs       hcl.Expression `hcl:"inputs,optional"`
	Outputs      hcl.Expression `hcl:"outputs,optional"`
	Intermediate bool           `hcl:"intermediate,optional"`
	Actions      []*actionBlock `hcl:"action,block"`
}

// actionBlock is an action "<tool>" block.
type actionBlock struct {
	Tool      string         `hcl:"tool,label"`
	Inputs    []string       `hcl:"inputs,optional"`
	Outputs   []string       `hcl:"outputs,optional"`
	Options   hcl.Expression `hcl:"options,optional"`
}
