package hclgraph

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block a grid file may hold.
type fileRoot struct {
	Tasks        []*taskBlock        `hcl:"task,block"`
	Resources    []*resourceBlock    `hcl:"resource,block"`
	Supervisions []*supervisionBlock `hcl:"supervision,block"`
	Escalations  []*escalationBlock  `hcl:"escalation,block"`
	Remain       hcl.Body            `hcl:",remain"`
}

type taskBlock struct {
	Name         string             `hcl:"name,label"`
	Handler      string             `hcl:"handler"`
	Team         string             `hcl:"team,optional"`
	Next         string             `hcl:"next,optional"`
	Uses         []string           `hcl:"uses,optional"`
	Supervised   []string           `hcl:"supervised,optional"`
	OnEscalation []*escalationBlock `hcl:"on_escalation,block"`
	Arguments    *argumentsBlock    `hcl:"arguments,block"`
}

type resourceBlock struct {
	Name         string          `hcl:"name,label"`
	Handler      string          `hcl:"handler"`
	Scope        string          `hcl:"scope,optional"`
	DependsOn    []string        `hcl:"depends_on,optional"`
	SupervisedBy []string        `hcl:"supervised_by,optional"`
	Arguments    *argumentsBlock `hcl:"arguments,block"`
}

type supervisionBlock struct {
	Name      string          `hcl:"name,label"`
	Handler   string          `hcl:"handler"`
	Strategy  string          `hcl:"strategy,optional"`
	Arguments *argumentsBlock `hcl:"arguments,block"`
}

// escalationBlock routes an escalation kind to a handler task. It is used
// both at the top level and nested in a task as on_escalation.
type escalationBlock struct {
	Kind string `hcl:"kind,label"`
	Task string `hcl:"task"`
}

type argumentsBlock struct {
	Body hcl.Body `hcl:",remain"`
}
