package schema

// FieldMap maps each node of a projected field's subtree to the real
// source field backing it.
type FieldMap map[*Field]*Field

// ProjectedFields is the registry of a model's virtual fields. Projected
// fields live in a private sub-tree and carry no columns of their own;
// their values are read from the mapped source fields.
type ProjectedFields struct {
	model     *Model
	zeroField *Field
	fieldMap  FieldMap
}

func newProjectedFields(m *Model) *ProjectedFields {
	return &ProjectedFields{
		model:     m,
		zeroField: newZeroField(),
		fieldMap:  make(FieldMap),
	}
}

// FieldZero returns the root of the private projected-field sub-tree.
func (p *ProjectedFields) FieldZero() *Field { return p.zeroField }

// GetSourceField returns the real source field backing target, or nil if
// target is not a registered projected field.
func (p *ProjectedFields) GetSourceField(target *Field) *Field {
	return p.fieldMap[target]
}

// Add validates the mapping of every node of f's subtree and, on success,
// records the mapping and attaches f to the private root.
func (p *ProjectedFields) Add(f *Field, fieldMap FieldMap) error {
	if err := p.ensureValidMapping(f, fieldMap); err != nil {
		return err
	}
	for _, sub := range f.Descendants() {
		if err := p.ensureValidMapping(sub, fieldMap); err != nil {
			return err
		}
	}

	for target, source := range fieldMap {
		p.fieldMap[target] = source
	}
	p.zeroField.attach(f)
	return nil
}

// ensureValidMapping checks that mapping target to its source keeps the
// projected field's iteration shape identical to the source's:
//
//   - structures must match, except a collection source may back a
//     cardinality target;
//   - leaf and unsplit mappings require exact type-name equality;
//   - neither side may sit below a fixed-size array;
//   - the nearest enclosing collections of both sides (their break
//     points) must be absent on both sides, be the same field, or be
//     mapped onto each other.
func (p *ProjectedFields) ensureValidMapping(target *Field, fieldMap FieldMap) error {
	source, ok := fieldMap[target]
	if !ok {
		return &CompatibilityError{
			Target: target.QualifiedName(),
			Reason: "missing source",
		}
	}

	compatible := source.structure == target.structure ||
		(source.structure == StructureCollection && target.cardinality)
	if !compatible {
		return p.mappingError(target, source, "structural mismatch")
	}
	if source.structure == StructureLeaf || source.structure == StructureUnsplit {
		if target.typeName != source.typeName {
			return p.mappingError(target, source, "type mismatch")
		}
	}

	if source.hasArrayAncestor() || target.hasArrayAncestor() {
		return p.mappingError(target, source, "unsupported across fixed-size arrays")
	}

	// Projections are supported only across records and collections.
	sourceBreak := source.breakPoint()
	if sourceBreak != nil && sourceBreak.structure != StructureCollection {
		return p.mappingError(target, source, "unsupported source structure")
	}
	targetBreak := target.breakPoint()
	if targetBreak != nil && targetBreak.structure != StructureCollection {
		return p.mappingError(target, source, "unsupported target structure")
	}

	switch {
	case sourceBreak == nil && targetBreak == nil:
		// Neither side is nested in a collection.
		return nil
	case sourceBreak != nil && targetBreak != nil:
		if sourceBreak == targetBreak {
			// Both sides are children of the same collection.
			return nil
		}
		if mapped, ok := fieldMap[targetBreak]; ok && mapped == sourceBreak {
			// The enclosing collections correspond through the mapping.
			return nil
		}
		return p.mappingError(target, source, "structure mismatch")
	default:
		// Exactly one side is nested in a collection.
		return p.mappingError(target, source, "structure mismatch")
	}
}

func (p *ProjectedFields) mappingError(target, source *Field, reason string) error {
	return &CompatibilityError{
		Target: target.QualifiedName(),
		Source: source.QualifiedName(),
		Reason: reason,
	}
}

// clone deep-copies the registry for newModel. The mapping is re-resolved
// by qualified-name lookup against the cloned trees; quadratic, but
// projected-field counts are small.
func (p *ProjectedFields) clone(newModel *Model) *ProjectedFields {
	clone := &ProjectedFields{
		model:     newModel,
		zeroField: p.zeroField.clone(),
		fieldMap:  make(FieldMap, len(p.fieldMap)),
	}
	for target, source := range p.fieldMap {
		for _, f := range clone.zeroField.Descendants() {
			if f.QualifiedName() != target.QualifiedName() {
				continue
			}
			newSource := newModel.FindField(source.QualifiedName())
			if newSource == nil {
				// The source was cloned together with the model's field
				// tree, so it cannot be missing.
				panic("schema: projected field source lost during clone: " + source.QualifiedName())
			}
			clone.fieldMap[f] = newSource
			break
		}
	}
	return clone
}
