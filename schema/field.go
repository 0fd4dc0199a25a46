package schema

import "strings"

// Structure classifies the shape of a field node in the schema tree.
type Structure int

const (
	// StructureLeaf is a field holding a single fixed-size value.
	StructureLeaf Structure = iota
	// StructureRecord groups named sub fields without adding columns.
	StructureRecord
	// StructureCollection is a variable-size list of its item field.
	StructureCollection
	// StructureUnsplit stores values as opaque byte blobs.
	StructureUnsplit
	// StructureVariant holds one of several alternative sub fields.
	StructureVariant
)

func (s Structure) String() string {
	switch s {
	case StructureLeaf:
		return "leaf"
	case StructureRecord:
		return "record"
	case StructureCollection:
		return "collection"
	case StructureUnsplit:
		return "unsplit"
	case StructureVariant:
		return "variant"
	default:
		return "unknown"
	}
}

// Field is one node of the schema tree. A field owns its ordered sub
// fields and keeps a non-owning reference to its parent. The tree root of
// a model is the zero field: a Record with no name and no type.
type Field struct {
	name        string
	typeName    string
	structure   Structure
	repetition  int // >0 marks a fixed-size array
	cardinality bool
	parent      *Field
	children    []*Field
}

// NewLeafField creates a field holding single values of the given type.
func NewLeafField(name, typeName string) *Field {
	return &Field{name: name, typeName: typeName, structure: StructureLeaf}
}

// NewRecordField creates a field grouping the given sub fields.
func NewRecordField(name string, subFields ...*Field) *Field {
	f := &Field{name: name, structure: StructureRecord}
	for _, sub := range subFields {
		f.attach(sub)
	}
	return f
}

// NewCollectionField creates a variable-size collection of item.
func NewCollectionField(name string, item *Field) *Field {
	f := &Field{name: name, typeName: "[]" + item.typeName, structure: StructureCollection}
	f.attach(item)
	return f
}

// NewArrayField creates a fixed-size array of n items. Fields nested
// inside an array can never take part in a projection.
func NewArrayField(name string, item *Field, n int) *Field {
	f := &Field{name: name, typeName: "[]" + item.typeName, structure: StructureCollection, repetition: n}
	f.attach(item)
	return f
}

// NewUnsplitField creates a field whose values are stored as opaque blobs.
func NewUnsplitField(name, typeName string) *Field {
	return &Field{name: name, typeName: typeName, structure: StructureUnsplit}
}

// NewCardinalityField creates a leaf field reporting the size of a
// collection. It is only meaningful as a projection target whose source
// is a collection field.
func NewCardinalityField(name string) *Field {
	return &Field{name: name, typeName: "cardinality", structure: StructureLeaf, cardinality: true}
}

func newZeroField() *Field {
	return &Field{structure: StructureRecord}
}

// Name returns the field's own name.
func (f *Field) Name() string { return f.name }

// TypeName returns the declared type name.
func (f *Field) TypeName() string { return f.typeName }

// Structure returns the field's structural kind.
func (f *Field) Structure() Structure { return f.structure }

// Repetition returns the fixed repetition count; zero means the field is
// not a fixed-size array.
func (f *Field) Repetition() int { return f.repetition }

// IsCardinality reports whether the field is a collection-size field.
func (f *Field) IsCardinality() bool { return f.cardinality }

// Parent returns the owning parent field, or nil for a tree root.
func (f *Field) Parent() *Field { return f.parent }

// SubFields returns the direct sub fields in attachment order. The
// returned slice must not be modified.
func (f *Field) SubFields() []*Field { return f.children }

// QualifiedName returns the dot-joined path from the tree root, excluding
// the unnamed zero field.
func (f *Field) QualifiedName() string {
	if f.parent == nil {
		return f.name
	}
	if prefix := f.parent.QualifiedName(); prefix != "" {
		return prefix + "." + f.name
	}
	return f.name
}

// Descendants returns all fields below f in pre-order, excluding f.
func (f *Field) Descendants() []*Field {
	var out []*Field
	var walk func(*Field)
	walk = func(g *Field) {
		for _, sub := range g.children {
			out = append(out, sub)
			walk(sub)
		}
	}
	walk(f)
	return out
}

func (f *Field) attach(sub *Field) {
	sub.parent = f
	f.children = append(f.children, sub)
}

// findSub returns the direct sub field with the given name, or nil.
func (f *Field) findSub(name string) *Field {
	for _, sub := range f.children {
		if sub.name == name {
			return sub
		}
	}
	return nil
}

// ensureUniqueSubNames verifies that sub-field names are pairwise distinct
// at every level of f's subtree.
func (f *Field) ensureUniqueSubNames() error {
	seen := make(map[string]struct{}, len(f.children))
	for _, sub := range f.children {
		if _, dup := seen[sub.name]; dup {
			return usageErrorf("duplicate sub field name %q in field %q", sub.name, f.name)
		}
		seen[sub.name] = struct{}{}
		if err := sub.ensureUniqueSubNames(); err != nil {
			return err
		}
	}
	return nil
}

// clone deep-copies f's subtree. The copy has no parent.
func (f *Field) clone() *Field {
	c := &Field{
		name:        f.name,
		typeName:    f.typeName,
		structure:   f.structure,
		repetition:  f.repetition,
		cardinality: f.cardinality,
	}
	for _, sub := range f.children {
		c.attach(sub.clone())
	}
	return c
}

// hasArrayAncestor reports whether any ancestor of f is a fixed-size
// array. The field itself is not considered.
func (f *Field) hasArrayAncestor() bool {
	for p := f.parent; p != nil; p = p.parent {
		if p.repetition > 0 {
			return true
		}
	}
	return false
}

// breakPoint returns the nearest ancestor that is neither a record nor a
// leaf, or nil if f is only nested in records up to the tree root. For a
// well-formed field the break point is its enclosing collection.
func (f *Field) breakPoint() *Field {
	for p := f.parent; p != nil; p = p.parent {
		if p.structure != StructureRecord && p.structure != StructureLeaf {
			return p
		}
	}
	return nil
}

// columnElementSizes returns the element size of every column the field
// itself contributes, not counting sub fields. Record fields contribute
// no columns; collections contribute their offset column.
func (f *Field) columnElementSizes() []int {
	switch f.structure {
	case StructureLeaf:
		return []int{leafElementSize(f.typeName)}
	case StructureCollection:
		if f.repetition > 0 {
			return nil // fixed-size arrays need no offset column
		}
		return []int{8}
	case StructureUnsplit:
		return []int{8, 1}
	case StructureVariant:
		return []int{4}
	default:
		return nil
	}
}

func leafElementSize(typeName string) int {
	switch typeName {
	case "bool", "int8", "uint8", "byte":
		return 1
	case "int16", "uint16":
		return 2
	case "int32", "uint32", "float32":
		return 4
	default:
		// int64, uint64, float64, cardinality, and anything unknown.
		return 8
	}
}

func splitQualifiedName(qualified string) []string {
	return strings.Split(qualified, ".")
}
