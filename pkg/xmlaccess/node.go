package xmlaccess

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// Attr is a single attribute of a Node.
type Attr struct {
	Space string
	Name  string
	Value string
}

// Node is an element of a parsed document. Nodes are never modified after
// parsing completes.
type Node struct {
	name      string
	namespace string
	attrs     []Attr
	children  []*Node
	content   []segment
}

// segment is either a run of character data or a child element, kept in
// document order so InnerText can be reassembled.
type segment struct {
	text  string
	child *Node
}

// Name returns the local name of the element.
func (n *Node) Name() string {
	if n == nil {
		return ""
	}
	return n.name
}

// Namespace returns the namespace URI of the element, if any.
func (n *Node) Namespace() string {
	if n == nil {
		return ""
	}
	return n.namespace
}

// Attrs returns a copy of the element's attributes in document order.
// Namespace declarations are not included.
func (n *Node) Attrs() []Attr {
	if n == nil {
		return nil
	}
	return append([]Attr(nil), n.attrs...)
}

// Children returns a copy of the element's child elements in document order.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return append([]*Node(nil), n.children...)
}

// InnerText returns the concatenated text of the element and all its
// descendants.
func (n *Node) InnerText() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	for _, s := range n.content {
		if s.child != nil {
			s.child.writeText(b)
			continue
		}
		b.WriteString(s.text)
	}
}

// ownText returns only the character data directly inside the element.
func (n *Node) ownText() string {
	var b strings.Builder
	for _, s := range n.content {
		if s.child == nil {
			b.WriteString(s.text)
		}
	}
	return b.String()
}

func (n *Node) attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// finish drops whitespace-only text between child elements. Leaf text is
// kept verbatim.
func (n *Node) finish() {
	if len(n.children) == 0 {
		return
	}
	kept := n.content[:0]
	for _, s := range n.content {
		if s.child == nil && strings.TrimSpace(s.text) == "" {
			continue
		}
		kept = append(kept, s)
	}
	n.content = kept
}

// Parse reads a complete XML document and returns its document element.
//
// Entities declared in the document's internal DTD subset are expanded.
// External entities are never fetched: a reference to one is a syntax
// error like any other undeclared entity.
func Parse(r io.Reader) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	entities, err := checkWellFormed(data)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		Entity:                 entities,
		PreserveDuplicateAttrs: true,
	}
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}

	root := doc.Root()
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	return newNode(root)
}

// checkWellFormed runs the strict decoder over the whole document and
// returns the internal entities it declares.
func checkWellFormed(data []byte) (map[string]string, error) {
	entities := make(map[string]string)

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.Entity = entities

	var depth, roots int
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return entities, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					line, _ := dec.InputPos()
					return nil, fmt.Errorf("line %d: more than one root element", line)
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && strings.TrimSpace(string(t)) != "" {
				line, _ := dec.InputPos()
				return nil, fmt.Errorf("line %d: text outside of root element", line)
			}
		case xml.Directive:
			if depth == 0 {
				readEntityDecls(string(t), entities)
			}
		}
	}
}

// readEntityDecls adds the general entities with literal values declared
// in a DOCTYPE directive. Parameter entities and SYSTEM or PUBLIC entities
// are skipped.
func readEntityDecls(directive string, entities map[string]string) {
	const marker = "<!ENTITY"

	rest := directive
	for {
		i := strings.Index(rest, marker)
		if i < 0 {
			return
		}
		rest = strings.TrimLeft(rest[i+len(marker):], " \t\r\n")
		if strings.HasPrefix(rest, "%") {
			continue
		}

		end := strings.IndexAny(rest, " \t\r\n")
		if end <= 0 {
			return
		}
		name := rest[:end]
		rest = strings.TrimLeft(rest[end:], " \t\r\n")
		if rest == "" || (rest[0] != '"' && rest[0] != '\'') {
			continue
		}

		quote := rest[0]
		closing := strings.IndexByte(rest[1:], quote)
		if closing < 0 {
			return
		}
		if _, exists := entities[name]; !exists {
			entities[name] = rest[1 : closing+1]
		}
		rest = rest[closing+2:]
	}
}

func newNode(e *etree.Element) (*Node, error) {
	n := &Node{name: e.Tag, namespace: e.NamespaceURI()}
	for _, a := range e.Attr {
		if isNamespaceDecl(a) {
			continue
		}
		space := a.NamespaceURI()
		for _, existing := range n.attrs {
			if existing.Space == space && existing.Name == a.Key {
				return nil, fmt.Errorf("duplicate attribute %q on element <%s>", a.Key, e.Tag)
			}
		}
		n.attrs = append(n.attrs, Attr{Space: space, Name: a.Key, Value: a.Value})
	}

	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.Element:
			child, err := newNode(t)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
			n.content = append(n.content, segment{child: child})
		case *etree.CharData:
			n.content = append(n.content, segment{text: t.Data})
		}
	}
	n.finish()
	return n, nil
}

func isNamespaceDecl(a etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}
