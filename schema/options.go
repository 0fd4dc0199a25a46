package schema

import "github.com/kahanikaar/root/codec"

// ImplicitMT selects how much implicit parallelism a writer may use for
// compression.
type ImplicitMT int

const (
	// ImplicitMTDefault lets the writer decide; compression may run
	// asynchronously, keeping uncompressed pages alive longer.
	ImplicitMTDefault ImplicitMT = iota
	// ImplicitMTOff forbids implicit parallelism.
	ImplicitMTOff
	// ImplicitMTExplicit means the caller manages parallelism itself.
	ImplicitMTExplicit
)

// WriteOptions carries the tuning knobs that feed the write-memory
// estimate and the writer's page sizing.
type WriteOptions struct {
	// InitialElementsPerPage is the number of elements a freshly
	// allocated page buffer holds per column.
	InitialElementsPerPage int

	// PageBufferBudget caps the total memory spent on page buffers.
	PageBufferBudget int

	// MaxUnzippedPageSize caps the size of a single uncompressed page.
	MaxUnzippedPageSize int

	// ApproxZippedClusterSize is the target compressed size of a cluster.
	ApproxZippedClusterSize int

	// Compression selects the page compression codec.
	Compression codec.Type

	// UseBufferedWrite keeps compressed pages buffered until a cluster is
	// complete instead of streaming them out page by page.
	UseBufferedWrite bool

	// ImplicitMT controls implicit compression parallelism.
	ImplicitMT ImplicitMT
}

// DefaultWriteOptions returns the write options used when the caller
// does not tune anything.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		InitialElementsPerPage:  64,
		PageBufferBudget:        100 * 1024 * 1024,
		MaxUnzippedPageSize:     1024 * 1024,
		ApproxZippedClusterSize: 50 * 1000 * 1000,
		Compression:             codec.ZSTD,
		UseBufferedWrite:        true,
		ImplicitMT:              ImplicitMTDefault,
	}
}

// EstimateWriteMemoryUsage returns an upper estimate of the memory a
// writer needs for this model under the given options. The estimate sums
// the initial page buffer of every column, caps the steady-state page
// buffers at min(PageBufferBudget, columns × MaxUnzippedPageSize), and,
// for buffered writing, adds the initial buffers plus one multiple of the
// approximate compressed cluster size — two multiples when compression
// runs with implicit parallelism, since uncompressed pages then stay
// alive while compression is in flight.
func (m *Model) EstimateWriteMemoryUsage(opts WriteOptions) int {
	nColumns := 0
	minPageBufferSize := 0
	for _, f := range m.zeroField.Descendants() {
		for _, elementSize := range f.columnElementSizes() {
			nColumns++
			minPageBufferSize += opts.InitialElementsPerPage * elementSize
		}
	}
	bytes := min(opts.PageBufferBudget, nColumns*opts.MaxUnzippedPageSize)

	if opts.UseBufferedWrite {
		bytes += minPageBufferSize
		if opts.Compression != codec.None && opts.ImplicitMT == ImplicitMTDefault {
			bytes += 2 * opts.ApproxZippedClusterSize
		} else {
			bytes += opts.ApproxZippedClusterSize
		}
	}
	return bytes
}
