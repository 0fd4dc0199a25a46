package schema

// Changeset collects the fields added during one open Updater
// transaction. It is consumed exactly once on commit.
type Changeset struct {
	Model                *Model
	AddedFields          []*Field
	AddedProjectedFields []*Field
}

// IsEmpty reports whether the transaction added any fields.
func (c *Changeset) IsEmpty() bool {
	return len(c.AddedFields) == 0 && len(c.AddedProjectedFields) == 0
}

// Sink receives committed schema changes. It is implemented by the
// storage layer backing a writer.
type Sink interface {
	// UpdateSchema incorporates the changeset. firstEntry is the number of
	// entries written before the commit, so readers know from which row
	// the new columns are valid.
	UpdateSchema(changeset *Changeset, firstEntry uint64) error

	// EntryCount returns the number of entries the sink has committed.
	EntryCount() uint64
}

// Writer is the collaborator whose live model an Updater evolves.
type Writer interface {
	// UpdatableModel returns the model the writer fills entries against.
	UpdatableModel() *Model

	// Sink returns the sink that receives committed changesets.
	Sink() Sink

	// EntryCount returns the number of entries filled so far.
	EntryCount() uint64
}

// Updater evolves the schema of a live writer transactionally. Between
// BeginUpdate and CommitUpdate the model is unfrozen and marked updating,
// so the writer refuses to fill entries; on commit the added fields are
// delivered to the sink as one unit. Only one transaction may be open per
// model at a time; that exclusion is the caller's responsibility.
//
// There is no abort: a transaction that is begun and never committed
// leaves the model marked updating, and the writer unable to fill.
type Updater struct {
	writer Writer
	open   Changeset
}

// NewUpdater creates an Updater for the writer's live model.
func NewUpdater(w Writer) *Updater {
	return &Updater{
		writer: w,
		open:   Changeset{Model: w.UpdatableModel()},
	}
}

// BeginUpdate opens a schema-evolution transaction: the model is unfrozen
// and marked updating until CommitUpdate.
func (u *Updater) BeginUpdate() {
	u.open.Model.beginUpdate()
}

// CommitUpdate refreezes the model, clears the updating mark, and, if any
// fields were added, delivers the changeset to the writer's sink tagged
// with the current entry count.
func (u *Updater) CommitUpdate() error {
	u.open.Model.commitUpdate()
	if u.open.IsEmpty() {
		return nil
	}
	committed := Changeset{Model: u.open.Model}
	committed.AddedFields, u.open.AddedFields = u.open.AddedFields, nil
	committed.AddedProjectedFields, u.open.AddedProjectedFields = u.open.AddedProjectedFields, nil
	return u.writer.Sink().UpdateSchema(&committed, u.writer.EntryCount())
}

// AddField adds a field through the open transaction.
func (u *Updater) AddField(f *Field) error {
	if err := u.open.Model.AddField(f); err != nil {
		return err
	}
	u.open.AddedFields = append(u.open.AddedFields, f)
	return nil
}

// AddProjectedField adds a projected field through the open transaction.
func (u *Updater) AddProjectedField(f *Field, mapping func(qualifiedName string) string) error {
	if err := u.open.Model.AddProjectedField(f, mapping); err != nil {
		return err
	}
	u.open.AddedProjectedFields = append(u.open.AddedProjectedFields, f)
	return nil
}
