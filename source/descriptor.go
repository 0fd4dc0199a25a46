package source

import (
	"errors"
	"fmt"
	"reflect"
)

// FeatureFlagTest is a feature flag reserved for testing forward
// compatibility; no released format version sets it.
const FeatureFlagTest uint64 = 137

// supportedFeatureFlags lists the on-disk capability flags this
// implementation understands. The current format defines none beyond the
// base feature set.
var supportedFeatureFlags = map[uint64]struct{}{}

// FormatError reports that a dataset declares a required on-disk feature
// this implementation does not understand. Opening must abort before any
// data is read rather than partially interpreting the file.
type FormatError struct {
	Feature uint64
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("source: unsupported format feature: %d", e.Feature)
}

var (
	// ErrNotAttached is returned when reading from a source that has no
	// valid descriptor attached.
	ErrNotAttached = errors.New("source: not attached")
	// ErrAlreadyAttached is returned when attaching twice.
	ErrAlreadyAttached = errors.New("source: already attached")
	// ErrUnknownColumn is returned for reads of an undeclared column.
	ErrUnknownColumn = errors.New("source: unknown column")
	// ErrUnknownCluster is returned for reads outside every cluster.
	ErrUnknownCluster = errors.New("source: unknown cluster")
	// ErrNoPageData is returned when a column has no data for the
	// requested row, e.g. rows before a late-added column's first entry.
	ErrNoPageData = errors.New("source: no page data")
)

// ColumnDescriptor describes one column of the dataset.
type ColumnDescriptor struct {
	ID              uint64
	FieldName       string
	ElementTypeName string
	ElementSize     int
	// FirstEntry is the global row from which this column has values.
	// Non-zero for columns added by schema evolution.
	FirstEntry uint64
}

// ClusterDescriptor describes one cluster: a contiguous run of rows
// written together.
type ClusterDescriptor struct {
	ID         uint64
	FirstEntry uint64
	NEntries   uint64
}

// Descriptor describes an attached dataset: its declared feature flags
// and its column and cluster layout.
type Descriptor struct {
	Name         string
	FeatureFlags []uint64
	Columns      []ColumnDescriptor
	Clusters     []ClusterDescriptor
}

// EnsureFeatureFlags fails with FormatError on the first declared feature
// flag this implementation does not support.
func (d *Descriptor) EnsureFeatureFlags() error {
	for _, flag := range d.FeatureFlags {
		if _, ok := supportedFeatureFlags[flag]; !ok {
			return &FormatError{Feature: flag}
		}
	}
	return nil
}

// Column returns the descriptor of the given column id.
func (d *Descriptor) Column(columnID uint64) (ColumnDescriptor, bool) {
	for _, c := range d.Columns {
		if c.ID == columnID {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// ClusterContaining returns the cluster covering the global row index.
func (d *Descriptor) ClusterContaining(globalIndex uint64) (ClusterDescriptor, bool) {
	for _, c := range d.Clusters {
		if globalIndex >= c.FirstEntry && globalIndex < c.FirstEntry+c.NEntries {
			return c, true
		}
	}
	return ClusterDescriptor{}, false
}

// Cluster returns the descriptor of the given cluster id.
func (d *Descriptor) Cluster(clusterID uint64) (ClusterDescriptor, bool) {
	for _, c := range d.Clusters {
		if c.ID == clusterID {
			return c, true
		}
	}
	return ClusterDescriptor{}, false
}

// EntryCount returns the total number of rows across all clusters.
func (d *Descriptor) EntryCount() uint64 {
	var n uint64
	for _, c := range d.Clusters {
		n += c.NEntries
	}
	return n
}

// elementTypeOf maps a declared element type name to the reflect identity
// used in pool keys.
func elementTypeOf(typeName string) reflect.Type {
	switch typeName {
	case "bool":
		return reflect.TypeOf(false)
	case "int8":
		return reflect.TypeOf(int8(0))
	case "uint8", "byte":
		return reflect.TypeOf(uint8(0))
	case "int16":
		return reflect.TypeOf(int16(0))
	case "uint16":
		return reflect.TypeOf(uint16(0))
	case "int32":
		return reflect.TypeOf(int32(0))
	case "uint32":
		return reflect.TypeOf(uint32(0))
	case "int64":
		return reflect.TypeOf(int64(0))
	case "uint64", "cardinality":
		return reflect.TypeOf(uint64(0))
	case "float32":
		return reflect.TypeOf(float32(0))
	case "float64":
		return reflect.TypeOf(float64(0))
	default:
		return reflect.TypeOf([]byte(nil))
	}
}

// elementSizeOf returns the serialized element size for a type name.
func elementSizeOf(typeName string) int {
	switch typeName {
	case "bool", "int8", "uint8", "byte":
		return 1
	case "int16", "uint16":
		return 2
	case "int32", "uint32", "float32":
		return 4
	default:
		return 8
	}
}
