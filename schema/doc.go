// Package schema implements the data model of a columnar dataset: a tree
// of typed fields, entries holding per-row values, and transactional
// schema evolution.
//
// # Model Lifecycle
//
// A Model is built while unfrozen and must be frozen before it can serve
// a writer or reader:
//
//	model := schema.NewModel()
//	_ = model.AddField(schema.NewLeafField("pt", "float32"))
//	model.Freeze()
//	entry, _ := model.CreateEntry()
//
// Freezing enables the stable-schema operations (CreateEntry, GetToken,
// DefaultEntry); unfreezing re-opens the model for mutation and issues a
// fresh identity, which invalidates previously captured tokens.
//
// # Schema Evolution
//
// Live writers evolve their schema through an Updater transaction. Fields
// added between BeginUpdate and CommitUpdate are collected into a
// Changeset and handed to the writer's Sink as one unit, tagged with the
// entry count at commit time. While a transaction is open the model
// reports IsUpdating, and writers must refuse to fill rows.
//
// # Projected Fields
//
// A projected field is a virtual field whose values are derived
// structurally from a real source field. Mappings are validated so that a
// projected field's iteration shape always matches its source's; invalid
// mappings are reported as CompatibilityError.
package schema
