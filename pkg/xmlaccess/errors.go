package xmlaccess

import "fmt"

// MissingFileError is returned when a required file does not exist.
type MissingFileError struct {
	// What describes the file, e.g. "data file" or "schema file".
	What string
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%s does not exist: %s", e.What, e.Path)
}

// MalformedDocumentError is returned when a file is not well-formed XML.
type MalformedDocumentError struct {
	Path string
	Err  error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("file %q does not contain valid XML: %v", e.Path, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

// RootNotFoundError is returned when the document element does not have
// the requested name.
type RootNotFoundError struct {
	Path string
	Root string
	// Found is the name of the document element that was present.
	Found string
}

func (e *RootNotFoundError) Error() string {
	return fmt.Sprintf("root node %q not found in %s (document element is %q)", e.Root, e.Path, e.Found)
}

// DuplicateKeyError is returned by ReadSubnodes when a uniqueness
// constraint is violated.
type DuplicateKeyError struct {
	Parent    string
	Attribute string
	Value     string
	// Missing is set when a child lacked the attribute entirely.
	Missing bool
}

func (e *DuplicateKeyError) Error() string {
	if e.Missing {
		return fmt.Sprintf("node %q contains a child without unique attribute %q", e.Parent, e.Attribute)
	}
	return fmt.Sprintf("node %q contains two nodes with identical unique attribute %q=%q", e.Parent, e.Attribute, e.Value)
}

// Violation is a single schema validation finding. Path locates the
// element, e.g. /DynDNSClient/Settings/Password.
type Violation struct {
	File    string
	Path    string
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}
