// Package acl is a small rule based ability checker.
//
// Rules are evaluated in order; the last matching rule wins, so inverted
// rules declared after permissive ones take precedence.
package acl

type Action string

const (
	Read   Action = "read"
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
	Manage Action = "manage"
)

const (
	SubjectAll   = "all"
	SubjectStory = "Story"
)

// Resource is implemented by records that can be matched by rule conditions.
type Resource interface {
	ACLSubject() string
}

type Rule struct {
	Action    Action
	Subject   string
	Fields    []string
	Inverted  bool
	Condition func(resource Resource) bool
}

func (r Rule) matches(action Action, subject string, resource Resource) bool {
	if r.Action != Manage && r.Action != action {
		return false
	}
	if r.Subject != SubjectAll && r.Subject != subject {
		return false
	}
	if r.Condition != nil {
		if resource == nil {
			// Type-level checks ignore conditions.
			return true
		}
		return r.Condition(resource)
	}
	return true
}

type Ability struct {
	rules []Rule
}

func New(rules ...Rule) *Ability {
	return &Ability{rules: rules}
}

// Builder collects rules with a fluent API.
type Builder struct {
	rules []Rule
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Can(action Action, subject string, fields []string, cond func(Resource) bool) *Builder {
	b.rules = append(b.rules, Rule{Action: action, Subject: subject, Fields: fields, Condition: cond})
	return b
}

func (b *Builder) Cannot(action Action, subject string, cond func(Resource) bool) *Builder {
	b.rules = append(b.rules, Rule{Action: action, Subject: subject, Inverted: true, Condition: cond})
	return b
}

func (b *Builder) Build() *Ability {
	return New(b.rules...)
}

func (a *Ability) relevant(action Action, subject string, resource Resource) []Rule {
	var out []Rule
	for _, r := range a.rules {
		if r.matches(action, subject, resource) {
			out = append(out, r)
		}
	}
	return out
}

// Can reports whether action is allowed on subject. resource may be nil for
// a type-level check.
func (a *Ability) Can(action Action, subject string, resource Resource) bool {
	if a == nil {
		return false
	}
	rules := a.relevant(action, subject, resource)
	if len(rules) == 0 {
		return false
	}
	return !rules[len(rules)-1].Inverted
}

func (a *Ability) Cannot(action Action, subject string, resource Resource) bool {
	return !a.Can(action, subject, resource)
}

// CanResource is Can for a concrete record.
func (a *Ability) CanResource(action Action, resource Resource) bool {
	return a.Can(action, resource.ACLSubject(), resource)
}

// PermittedFields returns the fields allowed by matching rules. A nil result
// means every field is permitted.
func (a *Ability) PermittedFields(action Action, resource Resource) []string {
	if a == nil {
		return nil
	}
	rules := a.relevant(action, resource.ACLSubject(), resource)
	seen := map[string]struct{}{}
	var fields []string
	for i := len(rules) - 1; i >= 0; i-- {
		r := rules[i]
		if r.Inverted {
			break
		}
		if len(r.Fields) == 0 {
			return nil
		}
		for _, f := range r.Fields {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				fields = append(fields, f)
			}
		}
	}
	return fields
}
