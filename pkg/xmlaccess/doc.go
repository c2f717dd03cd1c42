// Package xmlaccess loads XML settings documents and reads values from them.
//
// Documents are parsed into an immutable tree of [Node] values. A document
// can be checked against an XML Schema (XSD) while loading. Schema findings
// are advisory: each one is passed to a [ValidationHandler] and loading
// continues. Only a document that is not well-formed XML fails the load.
//
// # Usage
//
//	root, err := xmlaccess.Load("Settings.xml", "Settings.xsd", "DynDNSClient")
//	if err != nil {
//	    return err
//	}
//
//	user := xmlaccess.ReadSubnode(root, "Username")
//	value := xmlaccess.ReadInnerText(xmlaccess.ReadSubnode(user, "Value"), "")
//
// All readers treat a nil *Node as an absent node, so lookups can be chained
// without intermediate nil checks.
//
// # Schema support
//
// The validator understands the subset of XSD used by settings schemas:
// global and referenced element declarations, named and anonymous complex
// types with sequence, all and choice groups, occurrence bounds, required
// attributes, and simple type restrictions (enumeration, pattern, length
// facets) over the common built-in types. Names are matched by local name.
// Entities declared in the internal DTD subset are expanded. No external DTD
// or entity is ever fetched.
package xmlaccess
