package xmlaccess

import (
	"encoding/xml"
	"fmt"
	"io"
	"math/big"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
)

// Schema is a parsed XML Schema definition.
type Schema struct {
	elements     map[string]*xsdElement
	complexTypes map[string]*xsdComplexType
	simpleTypes  map[string]*xsdSimpleType
}

type xsdSchema struct {
	XMLName      xml.Name          `xml:"schema"`
	Elements     []*xsdElement     `xml:"element"`
	ComplexTypes []*xsdComplexType `xml:"complexType"`
	SimpleTypes  []*xsdSimpleType  `xml:"simpleType"`
}

type xsdElement struct {
	Name        string          `xml:"name,attr"`
	Ref         string          `xml:"ref,attr"`
	Type        string          `xml:"type,attr"`
	MinOccurs   string          `xml:"minOccurs,attr"`
	MaxOccurs   string          `xml:"maxOccurs,attr"`
	ComplexType *xsdComplexType `xml:"complexType"`
	SimpleType  *xsdSimpleType  `xml:"simpleType"`
}

type xsdComplexType struct {
	Name       string          `xml:"name,attr"`
	Mixed      bool            `xml:"mixed,attr"`
	Sequence   *xsdGroup       `xml:"sequence"`
	All        *xsdGroup       `xml:"all"`
	Choice     *xsdGroup       `xml:"choice"`
	Attributes []*xsdAttribute `xml:"attribute"`
}

type xsdGroup struct {
	MinOccurs string        `xml:"minOccurs,attr"`
	Elements  []*xsdElement `xml:"element"`
}

type xsdAttribute struct {
	Name       string         `xml:"name,attr"`
	Type       string         `xml:"type,attr"`
	Use        string         `xml:"use,attr"`
	SimpleType *xsdSimpleType `xml:"simpleType"`
}

type xsdSimpleType struct {
	Name        string          `xml:"name,attr"`
	Restriction *xsdRestriction `xml:"restriction"`
}

type xsdRestriction struct {
	Base         string     `xml:"base,attr"`
	Enumerations []xsdFacet `xml:"enumeration"`
	Patterns     []xsdFacet `xml:"pattern"`
	Length       *xsdFacet  `xml:"length"`
	MinLength    *xsdFacet  `xml:"minLength"`
	MaxLength    *xsdFacet  `xml:"maxLength"`
}

type xsdFacet struct {
	Value string `xml:"value,attr"`
}

var builtinTypes = map[string]bool{
	"anyType":            true,
	"anySimpleType":      true,
	"string":             true,
	"normalizedString":   true,
	"token":              true,
	"boolean":            true,
	"int":                true,
	"integer":            true,
	"long":               true,
	"short":              true,
	"byte":               true,
	"unsignedInt":        true,
	"positiveInteger":    true,
	"nonNegativeInteger": true,
	"decimal":            true,
	"anyURI":             true,
}

var (
	integerPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)
	decimalPattern = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)$`)
)

// LoadSchema reads and parses an XSD file.
func LoadSchema(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingFileError{What: "schema file", Path: path}
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	s, err := ParseSchema(f)
	if err != nil {
		return nil, &MalformedDocumentError{Path: path, Err: err}
	}
	return s, nil
}

// ParseSchema parses an XSD document.
func ParseSchema(r io.Reader) (*Schema, error) {
	var raw xsdSchema
	dec := xml.NewDecoder(r)
	dec.Strict = true
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	s := &Schema{
		elements:     make(map[string]*xsdElement, len(raw.Elements)),
		complexTypes: make(map[string]*xsdComplexType, len(raw.ComplexTypes)),
		simpleTypes:  make(map[string]*xsdSimpleType, len(raw.SimpleTypes)),
	}
	for _, e := range raw.Elements {
		s.elements[e.Name] = e
	}
	for _, ct := range raw.ComplexTypes {
		s.complexTypes[ct.Name] = ct
	}
	for _, st := range raw.SimpleTypes {
		s.simpleTypes[st.Name] = st
	}
	return s, nil
}

// Validate checks root against the schema. All findings are returned
// together as a *multierror.Error of *Violation values, or nil.
func (s *Schema) Validate(root *Node) error {
	v := &validator{schema: s}
	path := "/" + root.name

	decl, ok := s.elements[root.name]
	if !ok {
		v.fail(path, "no declaration for root element <%s>", root.name)
	} else {
		v.element(root, decl, path)
	}

	return v.errs.ErrorOrNil()
}

type validator struct {
	schema *Schema
	errs   *multierror.Error
}

func (v *validator) fail(path, format string, args ...any) {
	v.errs = multierror.Append(v.errs, &Violation{
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

// resolve follows an element reference to its global declaration.
func (v *validator) resolve(decl *xsdElement) (*xsdElement, bool) {
	if decl.Ref == "" {
		return decl, true
	}
	global, ok := v.schema.elements[localName(decl.Ref)]
	return global, ok
}

func (v *validator) element(n *Node, decl *xsdElement, path string) {
	decl, ok := v.resolve(decl)
	if !ok {
		v.fail(path, "unresolved element reference for <%s>", n.name)
		return
	}

	switch {
	case decl.ComplexType != nil:
		v.complex(n, decl.ComplexType, path)
	case decl.SimpleType != nil:
		v.simpleContent(n, path, func(text string) error {
			return v.checkSimple(decl.SimpleType, text)
		})
	case decl.Type != "":
		typeName := localName(decl.Type)
		if ct, ok := v.schema.complexTypes[typeName]; ok {
			v.complex(n, ct, path)
			return
		}
		if typeName == "anyType" {
			return
		}
		v.simpleContent(n, path, func(text string) error {
			return v.checkNamedType(typeName, text)
		})
	}
}

func (v *validator) simpleContent(n *Node, path string, check func(string) error) {
	if len(n.children) > 0 {
		v.fail(path, "element <%s> must not contain child elements", n.name)
		return
	}
	if err := check(n.InnerText()); err != nil {
		v.fail(path, "element <%s>: %v", n.name, err)
	}
}

func (v *validator) complex(n *Node, ct *xsdComplexType, path string) {
	v.attributes(n, ct, path)

	if !ct.Mixed && strings.TrimSpace(n.ownText()) != "" {
		v.fail(path, "element <%s> must not contain text", n.name)
	}

	switch {
	case ct.Sequence != nil:
		v.sequence(n, ct.Sequence, path)
	case ct.All != nil:
		v.all(n, ct.All, path)
	case ct.Choice != nil:
		v.choice(n, ct.Choice, path)
	default:
		for _, child := range n.children {
			v.fail(path+"/"+child.name, "unexpected element <%s> in <%s>", child.name, n.name)
		}
	}
}

func (v *validator) attributes(n *Node, ct *xsdComplexType, path string) {
	declared := make(map[string]*xsdAttribute, len(ct.Attributes))
	for _, a := range ct.Attributes {
		declared[a.Name] = a
		if _, ok := n.attr(a.Name); !ok && a.Use == "required" {
			v.fail(path, "missing required attribute %q on <%s>", a.Name, n.name)
		}
	}

	for _, a := range n.attrs {
		if a.Space != "" {
			continue
		}
		decl, ok := declared[a.Name]
		if !ok {
			v.fail(path, "attribute %q is not allowed on <%s>", a.Name, n.name)
			continue
		}

		var err error
		switch {
		case decl.SimpleType != nil:
			err = v.checkSimple(decl.SimpleType, a.Value)
		case decl.Type != "":
			err = v.checkNamedType(localName(decl.Type), a.Value)
		}
		if err != nil {
			v.fail(path, "attribute %q on <%s>: %v", a.Name, n.name, err)
		}
	}
}

func (v *validator) sequence(n *Node, g *xsdGroup, path string) {
	i := 0
	for _, d := range g.Elements {
		name := particleName(d)
		minOccurs, maxOccurs := occurs(d)

		count := 0
		for i < len(n.children) && n.children[i].name == name && (maxOccurs < 0 || count < maxOccurs) {
			child := n.children[i]
			v.element(child, d, path+"/"+child.name)
			i++
			count++
		}
		if count < minOccurs {
			v.fail(path, "element <%s> is missing child <%s>", n.name, name)
		}
	}

	for ; i < len(n.children); i++ {
		child := n.children[i]
		v.fail(path+"/"+child.name, "unexpected element <%s> in <%s>", child.name, n.name)
	}
}

func (v *validator) all(n *Node, g *xsdGroup, path string) {
	decls := make(map[string]*xsdElement, len(g.Elements))
	for _, d := range g.Elements {
		decls[particleName(d)] = d
	}

	counts := make(map[string]int, len(n.children))
	for _, child := range n.children {
		d, ok := decls[child.name]
		if !ok {
			v.fail(path+"/"+child.name, "unexpected element <%s> in <%s>", child.name, n.name)
			continue
		}
		counts[child.name]++
		if _, maxOccurs := occurs(d); maxOccurs >= 0 && counts[child.name] > maxOccurs {
			v.fail(path+"/"+child.name, "element <%s> occurs too often in <%s>", child.name, n.name)
			continue
		}
		v.element(child, d, path+"/"+child.name)
	}

	for _, d := range g.Elements {
		name := particleName(d)
		if minOccurs, _ := occurs(d); counts[name] < minOccurs {
			v.fail(path, "element <%s> is missing child <%s>", n.name, name)
		}
	}
}

func (v *validator) choice(n *Node, g *xsdGroup, path string) {
	if len(n.children) == 0 {
		if g.MinOccurs != "0" {
			v.fail(path, "element <%s> requires one of %s", n.name, strings.Join(particleNames(g), ", "))
		}
		return
	}

	first := n.children[0]
	var chosen *xsdElement
	for _, d := range g.Elements {
		if particleName(d) == first.name {
			chosen = d
			break
		}
	}
	if chosen == nil {
		v.fail(path+"/"+first.name, "unexpected element <%s> in <%s>", first.name, n.name)
		return
	}

	_, maxOccurs := occurs(chosen)
	for i, child := range n.children {
		if child.name != first.name || (maxOccurs >= 0 && i >= maxOccurs) {
			v.fail(path+"/"+child.name, "unexpected element <%s> in <%s>", child.name, n.name)
			continue
		}
		v.element(child, chosen, path+"/"+child.name)
	}
}

func (v *validator) checkNamedType(typeName, value string) error {
	if st, ok := v.schema.simpleTypes[typeName]; ok {
		return v.checkSimple(st, value)
	}
	if !builtinTypes[typeName] {
		return fmt.Errorf("unknown type %q", typeName)
	}
	return checkBuiltin(typeName, value)
}

func (v *validator) checkSimple(st *xsdSimpleType, value string) error {
	r := st.Restriction
	if r == nil {
		return nil
	}
	if r.Base != "" {
		if err := v.checkNamedType(localName(r.Base), value); err != nil {
			return err
		}
	}

	if len(r.Enumerations) > 0 {
		allowed := make([]string, 0, len(r.Enumerations))
		match := false
		for _, e := range r.Enumerations {
			allowed = append(allowed, e.Value)
			if e.Value == value {
				match = true
			}
		}
		if !match {
			return fmt.Errorf("value %q is not one of [%s]", value, strings.Join(allowed, ", "))
		}
	}

	for _, p := range r.Patterns {
		re, err := regexp.Compile(`^(?:` + p.Value + `)$`)
		if err != nil {
			return fmt.Errorf("unsupported pattern %q: %w", p.Value, err)
		}
		if !re.MatchString(value) {
			return fmt.Errorf("value %q does not match pattern %q", value, p.Value)
		}
	}

	length := utf8.RuneCountInString(value)
	if err := checkLength(r.Length, length, func(limit int) bool { return length == limit }, "exactly"); err != nil {
		return err
	}
	if err := checkLength(r.MinLength, length, func(limit int) bool { return length >= limit }, "at least"); err != nil {
		return err
	}
	return checkLength(r.MaxLength, length, func(limit int) bool { return length <= limit }, "at most")
}

func checkLength(facet *xsdFacet, length int, ok func(int) bool, qualifier string) error {
	if facet == nil {
		return nil
	}
	limit, err := strconv.Atoi(strings.TrimSpace(facet.Value))
	if err != nil {
		return fmt.Errorf("invalid length facet %q", facet.Value)
	}
	if !ok(limit) {
		return fmt.Errorf("length %d, must be %s %d", length, qualifier, limit)
	}
	return nil
}

func checkBuiltin(typeName, value string) error {
	switch typeName {
	case "anyType", "anySimpleType", "string":
		return nil
	case "normalizedString":
		if strings.ContainsAny(value, "\r\n\t") {
			return fmt.Errorf("value %q contains line breaks or tabs", value)
		}
		return nil
	case "token":
		if strings.ContainsAny(value, "\r\n\t") || strings.TrimSpace(value) != value || strings.Contains(value, "  ") {
			return fmt.Errorf("value %q is not a token", value)
		}
		return nil
	}

	// All remaining built-ins collapse surrounding whitespace.
	v := strings.TrimSpace(value)
	var err error
	switch typeName {
	case "boolean":
		switch v {
		case "true", "false", "1", "0":
		default:
			err = fmt.Errorf("value %q is not a boolean", value)
		}
	case "int":
		_, err = strconv.ParseInt(v, 10, 32)
	case "long":
		_, err = strconv.ParseInt(v, 10, 64)
	case "short":
		_, err = strconv.ParseInt(v, 10, 16)
	case "byte":
		_, err = strconv.ParseInt(v, 10, 8)
	case "unsignedInt":
		_, err = strconv.ParseUint(v, 10, 32)
	case "integer", "positiveInteger", "nonNegativeInteger":
		err = checkInteger(typeName, v)
	case "decimal":
		if !decimalPattern.MatchString(v) {
			err = fmt.Errorf("value %q is not a decimal", value)
		}
	case "anyURI":
		_, err = url.Parse(v)
	}
	if err != nil {
		return fmt.Errorf("invalid %s: %w", typeName, err)
	}
	return nil
}

func checkInteger(typeName, v string) error {
	if !integerPattern.MatchString(v) {
		return fmt.Errorf("value %q is not an integer", v)
	}
	n, _ := new(big.Int).SetString(strings.TrimPrefix(v, "+"), 10)
	switch {
	case typeName == "positiveInteger" && n.Sign() <= 0:
		return fmt.Errorf("value %q is not positive", v)
	case typeName == "nonNegativeInteger" && n.Sign() < 0:
		return fmt.Errorf("value %q is negative", v)
	}
	return nil
}

// occurs returns the occurrence bounds of a particle; -1 means unbounded.
func occurs(d *xsdElement) (int, int) {
	minOccurs, maxOccurs := 1, 1
	if d.MinOccurs != "" {
		if n, err := strconv.Atoi(d.MinOccurs); err == nil {
			minOccurs = n
		}
	}
	switch d.MaxOccurs {
	case "":
	case "unbounded":
		maxOccurs = -1
	default:
		if n, err := strconv.Atoi(d.MaxOccurs); err == nil {
			maxOccurs = n
		}
	}
	return minOccurs, maxOccurs
}

func particleName(d *xsdElement) string {
	if d.Ref != "" {
		return localName(d.Ref)
	}
	return d.Name
}

func particleNames(g *xsdGroup) []string {
	names := make([]string, 0, len(g.Elements))
	for _, d := range g.Elements {
		names = append(names, "<"+particleName(d)+">")
	}
	return names
}

// localName strips a namespace prefix such as "xs:".
func localName(qname string) string {
	if i := strings.LastIndexByte(qname, ':'); i >= 0 {
		return qname[i+1:]
	}
	return qname
}
