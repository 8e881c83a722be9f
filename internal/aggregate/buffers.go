package aggregate

// Buffers accumulates the script and style text collected during one
// traversal. It is a value: the Append methods return a new Buffers and leave
// the receiver untouched.
type Buffers struct {
	Script string
	Style  string
}

// AppendScript returns b with content and a trailing newline added to Script.
func (b Buffers) AppendScript(content string) Buffers {
	b.Script += content + "\n"
	return b
}

// AppendStyle returns b with content and a trailing newline added to Style.
func (b Buffers) AppendStyle(content string) Buffers {
	b.Style += content + "\n"
	return b
}

// Empty reports whether nothing has been collected.
func (b Buffers) Empty() bool {
	return b.Script == "" && b.Style == ""
}
