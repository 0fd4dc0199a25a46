package schema

// FieldToken is an opaque capability for O(1) value lookup in an entry.
// It captures the schema id under which it was issued; resolution fails
// once the model's schema has evolved past that id.
type FieldToken struct {
	index    int
	schemaID uint64
}

// Value is one slot of an entry: the top-level field it belongs to plus
// the storage holding the row's value. The storage is either owned by the
// entry or bound to caller-supplied memory (bare entries).
type Value struct {
	field *Field
	ptr   any
	owned bool
}

// Field returns the top-level field this slot belongs to.
func (v *Value) Field() *Field { return v.field }

// Ptr returns a pointer to the slot's storage, or nil for an unbound bare
// slot.
func (v *Value) Ptr() any { return v.ptr }

// Entry is a per-row bundle of value slots bound to exactly one
// (model id, schema id) pair.
type Entry struct {
	modelID  uint64
	schemaID uint64
	values   []Value
}

func newEntry(modelID, schemaID uint64) *Entry {
	return &Entry{modelID: modelID, schemaID: schemaID}
}

func (e *Entry) addValue(v Value) {
	e.values = append(e.values, v)
}

// Values returns the entry's value slots in field order.
func (e *Entry) Values() []Value { return e.values }

// Value resolves a token to the corresponding slot. It fails with
// UsageError if the token was captured under a different schema id.
func (e *Entry) Value(token FieldToken) (*Value, error) {
	if token.schemaID != e.schemaID {
		return nil, usageErrorf("invalid token, possibly due to schema change")
	}
	return &e.values[token.index], nil
}

// BindValue points a bare slot at caller-supplied storage. It fails with
// UsageError on a stale token or when the slot owns its storage.
func (e *Entry) BindValue(token FieldToken, ptr any) error {
	if token.schemaID != e.schemaID {
		return usageErrorf("invalid token, possibly due to schema change")
	}
	v := &e.values[token.index]
	if v.owned {
		return usageErrorf("invalid attempt to bind storage of an owning value slot")
	}
	v.ptr = ptr
	return nil
}

// newValue allocates owned storage matching the field's declared type.
func newValue(f *Field) Value {
	return Value{field: f, ptr: newStorage(f), owned: true}
}

// newBareValue creates a slot without storage; the caller binds it later.
func newBareValue(f *Field) Value {
	return Value{field: f}
}

func newStorage(f *Field) any {
	switch f.structure {
	case StructureCollection, StructureUnsplit, StructureVariant:
		return new([]byte)
	case StructureRecord:
		return new(map[string]any)
	}
	switch f.typeName {
	case "bool":
		return new(bool)
	case "int8":
		return new(int8)
	case "uint8", "byte":
		return new(uint8)
	case "int16":
		return new(int16)
	case "uint16":
		return new(uint16)
	case "int32":
		return new(int32)
	case "uint32":
		return new(uint32)
	case "int64":
		return new(int64)
	case "uint64", "cardinality":
		return new(uint64)
	case "float32":
		return new(float32)
	case "float64":
		return new(float64)
	case "string":
		return new(string)
	default:
		return new([]byte)
	}
}
