package page

// Kind discriminates the component union.
type Kind int

const (
	KindRendered Kind = iota + 1
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindRendered:
		return "rendered"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Component is one body fragment. Construct with Rendered or Raw.
type Component struct {
	kind Kind
	text string
}

// Rendered wraps the output of a component renderer.
func Rendered(output string) Component { return Component{kind: KindRendered, text: output} }

// Raw wraps markup that is used verbatim.
func Raw(markup string) Component { return Component{kind: KindRaw, text: markup} }

func (c Component) Kind() Kind { return c.kind }

// HTML returns the fragment contributed to the page body.
func (c Component) HTML() string { return c.text }
