package lang

// state is a compile state of the builder. States are pushed on entry to a
// block and popped on exit:
//
//	defer b.enter(stateElement)()
type state int

const (
	stateTop state = iota
	stateNamespace
	stateTemplate
	stateCustom
	stateElement
	stateStyleDef
	stateVarDef
	stateElementDef
	stateStyleBlock
	stateGlobalStyle
	stateScriptBlock
	stateSpecialization
	stateConfiguration
	stateInsertion
)

func (s state) String() string {
	switch s {
	case stateTop:
		return "top"
	case stateNamespace:
		return "namespace"
	case stateTemplate:
		return "template"
	case stateCustom:
		return "custom"
	case stateElement:
		return "element"
	case stateStyleDef:
		return "style definition"
	case stateVarDef:
		return "var definition"
	case stateElementDef:
		return "element definition"
	case stateStyleBlock:
		return "style block"
	case stateGlobalStyle:
		return "global style"
	case stateScriptBlock:
		return "script block"
	case stateSpecialization:
		return "specialization"
	case stateConfiguration:
		return "configuration"
	case stateInsertion:
		return "insertion"
	default:
		return "unknown"
	}
}

// enter pushes s and returns the function that pops it.
func (b *Builder) enter(s state) func() {
	b.states = append(b.states, s)
	n := len(b.states)

	return func() {
		b.states = b.states[:n-1]
	}
}

// top returns the innermost state.
func (b *Builder) top() state {
	if len(b.states) == 0 {
		return stateTop
	}

	return b.states[len(b.states)-1]
}

// in reports whether the innermost state is one of states.
func (b *Builder) in(states ...state) bool {
	t := b.top()

	for _, s := range states {
		if s == t {
			return true
		}
	}

	return false
}

// within reports whether s is anywhere on the state stack.
func (b *Builder) within(s state) bool {
	for _, st := range b.states {
		if st == s {
			return true
		}
	}

	return false
}

// declarationLevel reports whether template, custom, and configuration
// declarations are legal at the current position.
func (b *Builder) declarationLevel() bool {
	return b.in(stateTop, stateNamespace)
}

// propertyLevel reports whether a bare property list is legal at the current
// position.
func (b *Builder) propertyLevel() bool {
	return b.in(stateStyleDef, stateVarDef, stateStyleBlock, stateSpecialization)
}
