// =============================================================================
// pain.001 Converter - XML Writer Module
// =============================================================================
//
// This module turns an ordered stream of element operations into an XML
// document. The message assembler drives it; it knows nothing about pain.001.
//
// EMITTER PROTOCOL:
//   e := NewEmitter()
//   e.Open("Document")            // start element
//   e.Attr("xmlns", "urn:...")    // attribute on the open element
//   e.Leaf("MsgId", "M-1")        // open + text + close
//   e.Close()                     // end element
//   root, err := e.Document()
//
//   Call order is document order. pain.001 validity depends on element
//   order, so the emitter never reorders or sorts anything.
//
// OUTPUT:
//   <?xml version="1.0" encoding="UTF-8"?>
//   <Document xmlns="urn:...">
//     <MsgId>M-1</MsgId>
//   </Document>
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
	}
}

// =============================================================================
// ELEMENT TREE
// =============================================================================

// Attr is a single XML attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of the document tree. An element has either a text value
// or children, never both.
type Element struct {
	Name       string
	Attributes []Attr
	Value      string
	Children   []*Element
}

// Child returns the first direct child with the given name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Find walks a slash separated path of child names, e.g. "PmtInf/CtrlSum".
// Returns nil when any step is missing.
func (e *Element) Find(path string) *Element {
	current := e
	for _, step := range strings.Split(path, "/") {
		if current = current.Child(step); current == nil {
			return nil
		}
	}
	return current
}

// ChildrenNamed returns all direct children with the given name in order.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// AttrValue returns the value of the named attribute and whether it exists.
func (e *Element) AttrValue(name string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// =============================================================================
// EMITTER
// =============================================================================

// Errors reported by the emitter.
var (
	ErrNoOpenElement   = errors.New("xmlwriter: no open element")
	ErrUnclosedElement = errors.New("xmlwriter: unclosed element")
	ErrMultipleRoots   = errors.New("xmlwriter: document has more than one root")
	ErrMixedContent    = errors.New("xmlwriter: element has both text and children")
)

// Emitter builds an element tree from open/attr/text/close operations.
// The first protocol error is kept and reported by Document; later calls
// are ignored.
type Emitter struct {
	root  *Element
	stack []*Element
	err   error
}

// NewEmitter returns an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Open starts a new element nested in the currently open one.
func (e *Emitter) Open(name string) {
	if e.err != nil {
		return
	}

	el := &Element{Name: name}

	if len(e.stack) == 0 {
		if e.root != nil {
			e.err = fmt.Errorf("%w: <%s>", ErrMultipleRoots, name)
			return
		}
		e.root = el
	} else {
		parent := e.stack[len(e.stack)-1]
		if parent.Value != "" {
			e.err = fmt.Errorf("%w: <%s>", ErrMixedContent, parent.Name)
			return
		}
		parent.Children = append(parent.Children, el)
	}

	e.stack = append(e.stack, el)
}

// Attr adds an attribute to the currently open element.
func (e *Emitter) Attr(name, value string) {
	if e.err != nil {
		return
	}
	if len(e.stack) == 0 {
		e.err = fmt.Errorf("%w: attribute %s", ErrNoOpenElement, name)
		return
	}
	current := e.stack[len(e.stack)-1]
	current.Attributes = append(current.Attributes, Attr{Name: name, Value: value})
}

// Text sets the text content of the currently open element.
func (e *Emitter) Text(value string) {
	if e.err != nil {
		return
	}
	if len(e.stack) == 0 {
		e.err = fmt.Errorf("%w: text %q", ErrNoOpenElement, value)
		return
	}
	current := e.stack[len(e.stack)-1]
	if len(current.Children) > 0 {
		e.err = fmt.Errorf("%w: <%s>", ErrMixedContent, current.Name)
		return
	}
	current.Value += value
}

// Close ends the currently open element.
func (e *Emitter) Close() {
	if e.err != nil {
		return
	}
	if len(e.stack) == 0 {
		e.err = ErrNoOpenElement
		return
	}
	e.stack = e.stack[:len(e.stack)-1]
}

// Leaf emits a complete element with text content and optional attributes.
func (e *Emitter) Leaf(name, value string, attrs ...Attr) {
	e.Open(name)
	for _, a := range attrs {
		e.Attr(a.Name, a.Value)
	}
	e.Text(value)
	e.Close()
}

// Document returns the finished tree.
func (e *Emitter) Document() (*Element, error) {
	if e.err != nil {
		return nil, e.err
	}
	if len(e.stack) > 0 {
		return nil, fmt.Errorf("%w: <%s>", ErrUnclosedElement, e.stack[len(e.stack)-1].Name)
	}
	if e.root == nil {
		return nil, ErrNoOpenElement
	}
	return e.root, nil
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// Marshal serializes a tree with the default options.
func Marshal(root *Element) ([]byte, error) {
	return MarshalWithOptions(root, DefaultGenerateOptions())
}

// MarshalWithOptions serializes a tree depth first.
func MarshalWithOptions(root *Element, options GenerateOptions) ([]byte, error) {
	if root == nil {
		return nil, errors.New("xmlwriter: nil document")
	}

	var buffer bytes.Buffer

	// Write XML declaration if requested.
	if options.IncludeXMLDeclaration {
		buffer.WriteString(fmt.Sprintf("<?xml version=\"%s\" encoding=\"%s\"?>\n",
			options.XMLVersion, options.Encoding))
	}

	writeElement(&buffer, root, options.Indent, 0)

	return buffer.Bytes(), nil
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element *Element, indent string, level int) {
	// Write indentation.
	buffer.WriteString(strings.Repeat(indent, level))

	// Write opening tag.
	buffer.WriteString("<")
	buffer.WriteString(element.Name)

	// Write attributes.
	for _, attr := range element.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", attr.Name, escapeXML(attr.Value)))
	}

	// Check if element has children or value.
	if len(element.Children) == 0 && element.Value == "" {
		// Self-closing tag.
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	// Write value or children.
	if len(element.Children) == 0 {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")

		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}

		// Write indentation for closing tag.
		buffer.WriteString(strings.Repeat(indent, level))
	}

	// Write closing tag.
	buffer.WriteString("</")
	buffer.WriteString(element.Name)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML. Characters that may not
// appear in an XML document, such as most C0 controls, become U+FFFD.
func escapeXML(s string) string {
	var buffer bytes.Buffer
	// Writes to a bytes.Buffer do not fail.
	_ = xml.EscapeText(&buffer, []byte(s))
	return buffer.String()
}
