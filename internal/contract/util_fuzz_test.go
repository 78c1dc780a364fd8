package contract

import (
	"testing"

	"github.com/huangsam/hydrocheck/schema"
)

// FuzzDetectInputFormat fuzzes format detection with random file names.
func FuzzDetectInputFormat(f *testing.F) {
	seeds := []string{"results.csv", "results.csv.gz", "x.JSON", "x.parquet", "", ".gz", "noext"}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, path string) {
		format, compressed, err := DetectInputFormat(path, schema.AutoInput)
		if err != nil {
			return
		}
		if _, ok := schema.ValidInputFormats[format]; !ok || format == schema.AutoInput {
			t.Fatalf("unexpected format %q for %q", format, path)
		}
		if format == schema.ParquetInput && compressed {
			t.Fatalf("parquet cannot be compressed: %q", path)
		}
	})
}

// FuzzParseTolerancesString fuzzes the override parser.
func FuzzParseTolerancesString(f *testing.F) {
	f.Add("stage:0.3,flow:1")
	f.Add("ratio:")
	f.Add(",,,")
	f.Fuzz(func(_ *testing.T, s string) {
		_, _ = parseTolerancesString(s)
	})
}
