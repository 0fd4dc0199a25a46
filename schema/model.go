package schema

import (
	"strings"
	"sync/atomic"
)

var lastModelID atomic.Uint64

func newModelID() uint64 {
	return lastModelID.Add(1)
}

// Model owns a field tree plus an optional default entry and enforces the
// frozen/unfrozen lifecycle. The model id identifies the model instance;
// the schema id identifies its schema content and is stable while the
// model is frozen.
type Model struct {
	zeroField    *Field
	fieldNames   map[string]struct{}
	defaultEntry *Entry
	projected    *ProjectedFields
	description  string
	frozen       bool
	updating     bool
	modelID      uint64
	schemaID     uint64
}

func newModel(bare bool) *Model {
	m := &Model{
		zeroField:  newZeroField(),
		fieldNames: make(map[string]struct{}),
	}
	m.modelID = newModelID()
	m.schemaID = m.modelID
	m.projected = newProjectedFields(m)
	if !bare {
		m.defaultEntry = newEntry(m.modelID, m.schemaID)
	}
	return m
}

// NewModel creates an empty unfrozen model with a default entry.
func NewModel() *Model {
	return newModel(false)
}

// NewBareModel creates an empty unfrozen model without a default entry.
// Bare models are used when all value storage is supplied by the caller.
func NewBareModel() *Model {
	return newModel(true)
}

// IsFrozen reports whether the model is frozen.
func (m *Model) IsFrozen() bool { return m.frozen }

// IsBare reports whether the model has no default entry.
func (m *Model) IsBare() bool { return m.defaultEntry == nil }

// IsUpdating reports whether an Updater transaction is open on the model.
// Writers must refuse to fill rows while this is true, so that no row is
// ever serialized against a half-evolved schema.
func (m *Model) IsUpdating() bool { return m.updating }

// ModelID returns the identity of this model instance. It changes on
// construction, clone, and unfreeze.
func (m *Model) ModelID() uint64 { return m.modelID }

// SchemaID returns the identity of the model's schema content. It is
// stable while the model stays frozen.
func (m *Model) SchemaID() uint64 { return m.schemaID }

func (m *Model) ensureNotFrozen() error {
	if m.frozen {
		return usageErrorf("invalid attempt to modify frozen model")
	}
	return nil
}

func (m *Model) ensureValidFieldName(name string) error {
	if name == "" {
		return usageErrorf("name cannot be empty string")
	}
	if strings.Contains(name, ".") {
		return usageErrorf("name %q cannot contain dot characters", name)
	}
	if _, exists := m.fieldNames[name]; exists {
		return usageErrorf("field name %q already exists in model", name)
	}
	return nil
}

// AddField attaches a field as a new top-level child of the zero field.
// It fails with UsageError if the model is frozen, the field is nil, or
// its name is empty, contains a dot, or already exists.
func (m *Model) AddField(f *Field) error {
	if err := m.ensureNotFrozen(); err != nil {
		return err
	}
	if f == nil {
		return usageErrorf("null field")
	}
	if err := m.ensureValidFieldName(f.name); err != nil {
		return err
	}
	if err := f.ensureUniqueSubNames(); err != nil {
		return err
	}

	if m.defaultEntry != nil {
		m.defaultEntry.addValue(newValue(f))
	}
	m.fieldNames[f.name] = struct{}{}
	m.zeroField.attach(f)
	return nil
}

// FindField walks the field tree along the dot-separated path and returns
// the field at its end, or nil if any path segment is missing.
func (m *Model) FindField(qualifiedName string) *Field {
	if qualifiedName == "" {
		return nil
	}
	f := m.zeroField
	for _, name := range splitQualifiedName(qualifiedName) {
		if f = f.findSub(name); f == nil {
			return nil
		}
	}
	return f
}

// FieldZero returns the root of the field tree. It requires a frozen
// model, since the tree is only stable once mutation is forbidden.
func (m *Model) FieldZero() (*Field, error) {
	if !m.frozen {
		return nil, usageErrorf("invalid attempt to get zero field of unfrozen model")
	}
	return m.zeroField, nil
}

// DefaultEntry returns the model's default entry. It fails with
// UsageError on an unfrozen or bare model.
func (m *Model) DefaultEntry() (*Entry, error) {
	if !m.frozen {
		return nil, usageErrorf("invalid attempt to get default entry of unfrozen model")
	}
	if m.defaultEntry == nil {
		return nil, usageErrorf("invalid attempt to use default entry of bare model")
	}
	return m.defaultEntry, nil
}

// GetToken captures a capability for O(1) value lookup of a top-level
// field. The token is bound to the current schema id and is rejected by
// entries of any later schema.
func (m *Model) GetToken(fieldName string) (FieldToken, error) {
	for i, f := range m.zeroField.SubFields() {
		if f.name == fieldName {
			return FieldToken{index: i, schemaID: m.schemaID}, nil
		}
	}
	return FieldToken{}, usageErrorf("invalid field name: %q", fieldName)
}

// CreateEntry creates an entry with one owning value slot per top-level
// field. It requires a frozen model.
func (m *Model) CreateEntry() (*Entry, error) {
	if !m.frozen {
		return nil, usageErrorf("invalid attempt to create entry of unfrozen model")
	}
	e := newEntry(m.modelID, m.schemaID)
	for _, f := range m.zeroField.SubFields() {
		e.addValue(newValue(f))
	}
	return e, nil
}

// CreateBareEntry creates an entry whose value slots carry no storage;
// every slot must be bound by the caller before use. It requires a frozen
// model.
func (m *Model) CreateBareEntry() (*Entry, error) {
	if !m.frozen {
		return nil, usageErrorf("invalid attempt to create entry of unfrozen model")
	}
	e := newEntry(m.modelID, m.schemaID)
	for _, f := range m.zeroField.SubFields() {
		e.addValue(newBareValue(f))
	}
	return e, nil
}

// Bulk is a handle for reading many values of one field at once.
type Bulk struct {
	field *Field
}

// Field returns the field the bulk reads from.
func (b *Bulk) Field() *Field { return b.field }

// CreateBulk creates a bulk-read handle for the named field. It requires
// a frozen model.
func (m *Model) CreateBulk(fieldName string) (*Bulk, error) {
	if !m.frozen {
		return nil, usageErrorf("invalid attempt to create bulk of unfrozen model")
	}
	f := m.FindField(fieldName)
	if f == nil {
		return nil, usageErrorf("no such field: %q", fieldName)
	}
	return &Bulk{field: f}, nil
}

// Freeze forbids further schema mutation and enables the stable-schema
// operations.
func (m *Model) Freeze() {
	m.frozen = true
}

// Unfreeze re-opens a frozen model for mutation. It issues a fresh model
// id and schema id and propagates both to the default entry, breaking any
// token captured under the old identity. Unfreezing an unfrozen model is
// a no-op.
func (m *Model) Unfreeze() {
	if !m.frozen {
		return
	}
	m.modelID = newModelID()
	m.schemaID = m.modelID
	if m.defaultEntry != nil {
		m.defaultEntry.modelID = m.modelID
		m.defaultEntry.schemaID = m.schemaID
	}
	m.frozen = false
}

// SetDescription sets a free-form description of the dataset. The model
// must be unfrozen.
func (m *Model) SetDescription(description string) error {
	if err := m.ensureNotFrozen(); err != nil {
		return err
	}
	m.description = description
	return nil
}

// Description returns the dataset description.
func (m *Model) Description() string { return m.description }

// ProjectedFields returns the model's projected-field registry.
func (m *Model) ProjectedFields() *ProjectedFields { return m.projected }

// AddProjectedField attaches a virtual field whose values are derived
// from real fields. The mapping function translates the qualified name of
// the new field and of each of its sub fields into the qualified name of
// the backing source field. The mapping is validated structurally; an
// invalid mapping is reported as CompatibilityError and leaves the model
// unchanged.
func (m *Model) AddProjectedField(f *Field, mapping func(qualifiedName string) string) error {
	if err := m.ensureNotFrozen(); err != nil {
		return err
	}
	if f == nil {
		return usageErrorf("null field")
	}
	if err := f.ensureUniqueSubNames(); err != nil {
		return err
	}

	fieldMap := make(FieldMap)
	sourceName := mapping(f.name)
	source := m.FindField(sourceName)
	if source == nil {
		return usageErrorf("no such field: %q", sourceName)
	}
	fieldMap[f] = source
	for _, sub := range f.Descendants() {
		sourceName = mapping(sub.QualifiedName())
		source = m.FindField(sourceName)
		if source == nil {
			return usageErrorf("no such field: %q", sourceName)
		}
		fieldMap[sub] = source
	}

	if err := m.ensureValidFieldName(f.name); err != nil {
		return err
	}
	if err := m.projected.Add(f, fieldMap); err != nil {
		return err
	}
	m.fieldNames[f.name] = struct{}{}
	return nil
}

// Clone deep-copies the model: the field tree, the field-name set, the
// default entry, and the projected-field registry remapped to the clone.
// The clone receives a fresh model id. A frozen source keeps its schema
// id in the clone; an unfrozen source yields a clone whose schema id
// equals its new model id.
func (m *Model) Clone() *Model {
	clone := &Model{
		zeroField:   m.zeroField.clone(),
		fieldNames:  make(map[string]struct{}, len(m.fieldNames)),
		description: m.description,
		frozen:      m.frozen,
	}
	clone.modelID = newModelID()
	if m.frozen {
		clone.schemaID = m.schemaID
	} else {
		clone.schemaID = clone.modelID
	}
	for name := range m.fieldNames {
		clone.fieldNames[name] = struct{}{}
	}
	clone.projected = m.projected.clone(clone)
	if m.defaultEntry != nil {
		clone.defaultEntry = newEntry(clone.modelID, clone.schemaID)
		for _, f := range clone.zeroField.SubFields() {
			clone.defaultEntry.addValue(newValue(f))
		}
	}
	return clone
}

func (m *Model) beginUpdate() {
	m.Unfreeze()
	m.updating = true
}

func (m *Model) commitUpdate() {
	m.updating = false
	m.Freeze()
}
