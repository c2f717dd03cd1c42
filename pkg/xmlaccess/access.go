package xmlaccess

// ReadSubnode returns the first child element of node with the given name.
// It returns nil if node is nil or has no such child.
func ReadSubnode(node *Node, name string) *Node {
	if node == nil {
		return nil
	}
	for _, child := range node.children {
		if child.name == name {
			return child
		}
	}
	return nil
}

// ReadSubnodes returns all child elements of node with the given name, in
// document order.
//
// If uniqueAttribute is not empty, every returned node must carry that
// attribute and no two may share a value; otherwise a *DuplicateKeyError
// is returned.
func ReadSubnodes(node *Node, name, uniqueAttribute string) ([]*Node, error) {
	if node == nil {
		return []*Node{}, nil
	}

	result := make([]*Node, 0, len(node.children))
	for _, child := range node.children {
		if child.name == name {
			result = append(result, child)
		}
	}

	if uniqueAttribute == "" {
		return result, nil
	}

	seen := make(map[string]bool, len(result))
	for _, entry := range result {
		value, ok := entry.attr(uniqueAttribute)
		if !ok {
			return nil, &DuplicateKeyError{Parent: node.name, Attribute: uniqueAttribute, Missing: true}
		}
		if seen[value] {
			return nil, &DuplicateKeyError{Parent: node.name, Attribute: uniqueAttribute, Value: value}
		}
		seen[value] = true
	}

	return result, nil
}

// ReadAttribute returns the literal value of the named attribute, or
// defaultValue if node is nil or the attribute is absent.
func ReadAttribute(node *Node, name, defaultValue string) string {
	if node == nil {
		return defaultValue
	}
	if value, ok := node.attr(name); ok {
		return value
	}
	return defaultValue
}

// ReadInnerText returns the inner text of node, or defaultValue if node is
// nil. An existing node with no text yields "", not defaultValue.
func ReadInnerText(node *Node, defaultValue string) string {
	if node == nil {
		return defaultValue
	}
	return node.InnerText()
}

// LookupInnerText returns the inner text of node and whether node exists.
func LookupInnerText(node *Node) (string, bool) {
	if node == nil {
		return "", false
	}
	return node.InnerText(), true
}
