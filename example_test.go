package root_test

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"math"

	"github.com/kahanikaar/root/codec"
	"github.com/kahanikaar/root/page"
	"github.com/kahanikaar/root/schema"
	"github.com/kahanikaar/root/source"
)

// Example_model demonstrates building, freezing and reading back a schema.
func Example_model() {
	model := schema.NewModel()
	if err := model.AddField(schema.NewLeafField("pt", "float64")); err != nil {
		log.Fatal(err)
	}
	jet := schema.NewRecordField("jet",
		schema.NewLeafField("eta", "float32"),
		schema.NewLeafField("phi", "float32"),
	)
	if err := model.AddField(jet); err != nil {
		log.Fatal(err)
	}
	model.Freeze()

	fmt.Println(model.FindField("jet.eta").QualifiedName())
	fmt.Println(model.IsFrozen())
	// Output:
	// jet.eta
	// true
}

// Example_readPage demonstrates serving column data through a page source.
func Example_readPage() {
	pool := page.NewPool()
	src := source.New(page.NewHeapAllocator(), pool, source.Options{
		Compression: codec.ZSTD,
	})

	desc := &source.Descriptor{
		Name: "events",
		Columns: []source.ColumnDescriptor{
			{ID: 0, FieldName: "pt", ElementTypeName: "float64", ElementSize: 8},
		},
		Clusters: []source.ClusterDescriptor{
			{ID: 0, FirstEntry: 0, NEntries: 4},
		},
	}
	if err := src.Attach(desc); err != nil {
		log.Fatal(err)
	}

	elements := make([]byte, 8*4)
	for i, v := range []float64{10.5, 21.0, 31.5, 42.0} {
		binary.LittleEndian.PutUint64(elements[8*i:], math.Float64bits(v))
	}
	if err := src.PutPageData(0, 0, elements); err != nil {
		log.Fatal(err)
	}

	ref, err := src.ReadPage(context.Background(), 0, 2)
	if err != nil {
		log.Fatal(err)
	}
	defer ref.Release()

	pg := ref.Page()
	v := math.Float64frombits(binary.LittleEndian.Uint64(pg.Buffer()[8*2:]))
	fmt.Println(pg.NElements(), v)
	// Output: 4 31.5
}
