// bench - bdoc size benchmark runner
//
// Compares the bdoc encoding of a JSON corpus against minified JSON:
//   - Bytes of the encoded document
//   - Bytes on the wire as a GS1 doc frame, plain and compressed
//   - Whether decode then encode reproduces the same bytes
//
// Output: CSV and markdown summary
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/Neumenon/bdoc/bdoc"
	"github.com/Neumenon/bdoc/stream"
	flag "github.com/spf13/pflag"
)

type CaseResult struct {
	Name       string
	JSONBytes  int
	BDOCBytes  int
	FrameBytes int
	ZstdBytes  int
	LZ4Bytes   int
	Stable     bool
}

// Overhead is the bdoc size relative to minified JSON, in percent.
func (r CaseResult) Overhead() float64 {
	if r.JSONBytes == 0 {
		return 0
	}
	return float64(r.BDOCBytes-r.JSONBytes) / float64(r.JSONBytes) * 100.0
}

type Manifest struct {
	Version     string `json:"version"`
	Description string `json:"description"`
	Cases       []struct {
		Name string `json:"name"`
		File string `json:"file"`
	} `json:"cases"`
}

func main() {
	dir := flag.StringP("dir", "d", "", "corpus directory containing manifest.json")
	csvPath := flag.String("csv", "bench_results.csv", "CSV output path (empty to skip)")
	mdPath := flag.String("md", "BENCH.md", "markdown output path (empty to skip)")
	flag.Parse()

	testdataDir := *dir
	if testdataDir == "" {
		testdataDir = findTestdata()
	}
	if testdataDir == "" {
		fmt.Fprintln(os.Stderr, "Cannot find testdata/json directory")
		os.Exit(1)
	}

	manifest, err := loadManifest(testdataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot load manifest: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "bdoc Benchmark Runner\n")
	fmt.Fprintf(os.Stderr, "=====================\n")
	fmt.Fprintf(os.Stderr, "Corpus: %s (%d cases)\n\n", manifest.Version, len(manifest.Cases))

	var results []CaseResult
	for _, c := range manifest.Cases {
		jsonData, err := readCase(testdataDir, c.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", c.Name, err)
			continue
		}
		r, err := measure(c.Name, jsonData)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", c.Name, err)
			continue
		}
		results = append(results, r)
	}

	if *csvPath != "" {
		if f, err := os.Create(*csvPath); err == nil {
			writeCSV(f, results)
			f.Close()
			fmt.Fprintf(os.Stderr, "CSV written to: %s\n", *csvPath)
		}
	}
	if *mdPath != "" {
		if f, err := os.Create(*mdPath); err == nil {
			writeMarkdown(f, results, manifest.Version)
			f.Close()
			fmt.Fprintf(os.Stderr, "Markdown written to: %s\n", *mdPath)
		}
	}

	t := total(results)
	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Cases:        %d\n", len(results))
	fmt.Printf("JSON total:   %d bytes\n", t.JSONBytes)
	fmt.Printf("bdoc total:   %d bytes (%+.1f%%)\n", t.BDOCBytes, t.Overhead())
	fmt.Printf("Frames:       %d plain, %d zstd, %d lz4\n", t.FrameBytes, t.ZstdBytes, t.LZ4Bytes)
	fmt.Printf("Unstable:     %d\n", len(results)-countStable(results))
}

func loadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

func readCase(dir, file string) ([]byte, error) {
	return os.ReadFile(filepath.Join(dir, file))
}

// measure converts one JSON case to bdoc and sizes every representation.
func measure(name string, jsonData []byte) (CaseResult, error) {
	doc, err := bdoc.FromJSON(jsonData)
	if err != nil {
		return CaseResult{}, fmt.Errorf("parse error: %w", err)
	}
	jsonMin, err := bdoc.ToJSON(doc)
	if err != nil {
		return CaseResult{}, fmt.Errorf("minify: %w", err)
	}
	encoded, err := bdoc.Encode(doc)
	if err != nil {
		return CaseResult{}, fmt.Errorf("encode: %w", err)
	}

	decoded, err := bdoc.Decode(encoded)
	if err != nil {
		return CaseResult{}, fmt.Errorf("decode: %w", err)
	}
	reencoded, err := bdoc.Encode(decoded)
	if err != nil {
		return CaseResult{}, fmt.Errorf("re-encode: %w", err)
	}

	r := CaseResult{
		Name:      name,
		JSONBytes: len(jsonMin),
		BDOCBytes: len(encoded),
		Stable:    bytes.Equal(encoded, reencoded) && doc.Equal(decoded),
	}
	if r.FrameBytes, err = frameSize(encoded, stream.CompressionNone); err != nil {
		return CaseResult{}, err
	}
	if r.ZstdBytes, err = frameSize(encoded, stream.CompressionZstd); err != nil {
		return CaseResult{}, err
	}
	if r.LZ4Bytes, err = frameSize(encoded, stream.CompressionLZ4); err != nil {
		return CaseResult{}, err
	}
	return r, nil
}

func frameSize(payload []byte, tag stream.CompressionTag) (int, error) {
	var buf bytes.Buffer
	w := stream.NewWriter(&buf, stream.WithCRC(), stream.WithCompression(tag))
	if err := w.WriteDoc(1, 0, payload); err != nil {
		return 0, fmt.Errorf("write %s frame: %w", tag, err)
	}
	return buf.Len(), nil
}

func total(results []CaseResult) CaseResult {
	t := CaseResult{Name: "total"}
	for _, r := range results {
		t.JSONBytes += r.JSONBytes
		t.BDOCBytes += r.BDOCBytes
		t.FrameBytes += r.FrameBytes
		t.ZstdBytes += r.ZstdBytes
		t.LZ4Bytes += r.LZ4Bytes
	}
	return t
}

func countStable(results []CaseResult) int {
	n := 0
	for _, r := range results {
		if r.Stable {
			n++
		}
	}
	return n
}

func findTestdata() string {
	paths := []string{
		"testdata/json",
		"../testdata/json",
		"../../testdata/json",
	}
	for _, p := range paths {
		if _, err := os.Stat(filepath.Join(p, "manifest.json")); err == nil {
			return p
		}
	}
	return ""
}

func writeCSV(w io.Writer, results []CaseResult) {
	fmt.Fprintln(w, "name,json_bytes,bdoc_bytes,overhead_pct,frame_bytes,zstd_bytes,lz4_bytes,stable")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%d,%d,%.1f,%d,%d,%d,%t\n",
			r.Name, r.JSONBytes, r.BDOCBytes, r.Overhead(),
			r.FrameBytes, r.ZstdBytes, r.LZ4Bytes, r.Stable)
	}
}

func writeMarkdown(w io.Writer, results []CaseResult, version string) {
	t := total(results)

	fmt.Fprintf(w, "# bdoc Benchmark Results\n\n")
	fmt.Fprintf(w, "**Corpus:** %s (%d cases)  \n\n", version, len(results))

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "| Metric | JSON (minified) | bdoc | Overhead |\n")
	fmt.Fprintf(w, "|--------|-----------------|------|----------|\n")
	fmt.Fprintf(w, "| **Bytes** | %d | %d | %+.1f%% |\n\n", t.JSONBytes, t.BDOCBytes, t.Overhead())

	fmt.Fprintf(w, "| Frame | Bytes |\n")
	fmt.Fprintf(w, "|-------|-------|\n")
	fmt.Fprintf(w, "| plain | %d |\n", t.FrameBytes)
	fmt.Fprintf(w, "| zstd | %d |\n", t.ZstdBytes)
	fmt.Fprintf(w, "| lz4 | %d |\n\n", t.LZ4Bytes)

	sorted := make([]CaseResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Overhead() > sorted[j].Overhead()
	})

	fmt.Fprintf(w, "## Largest Overhead\n\n")
	fmt.Fprintf(w, "| Case | JSON | bdoc | Overhead |\n")
	fmt.Fprintf(w, "|------|------|------|----------|\n")
	for _, r := range sorted[:min(5, len(sorted))] {
		fmt.Fprintf(w, "| %s | %d | %d | %+.1f%% |\n", truncateName(r.Name, 25), r.JSONBytes, r.BDOCBytes, r.Overhead())
	}

	fmt.Fprintf(w, "\n## Unstable Cases\n\n")
	unstable := 0
	for _, r := range results {
		if !r.Stable {
			fmt.Fprintf(w, "- %s\n", r.Name)
			unstable++
		}
	}
	if unstable == 0 {
		fmt.Fprintf(w, "_None - every case re-encodes to identical bytes._\n")
	}

	fmt.Fprintf(w, "\n## Methodology\n\n")
	fmt.Fprintf(w, "- **JSON:** Minified, field order preserved, via `bdoc.ToJSON`\n")
	fmt.Fprintf(w, "- **bdoc:** `bdoc.Encode` of `bdoc.FromJSON`\n")
	fmt.Fprintf(w, "- **Frames:** one GS1 doc frame with CRC; compressed frames fall back to plain when compression does not help\n\n")

	fmt.Fprintf(w, "## Detailed Results\n\n")
	fmt.Fprintf(w, "| Case | JSON | bdoc | Overhead | Frame | zstd | lz4 | Stable |\n")
	fmt.Fprintf(w, "|------|------|------|----------|-------|------|-----|--------|\n")
	for _, r := range results {
		fmt.Fprintf(w, "| %s | %d | %d | %+.1f%% | %d | %d | %d | %t |\n",
			truncateName(r.Name, 25), r.JSONBytes, r.BDOCBytes, r.Overhead(),
			r.FrameBytes, r.ZstdBytes, r.LZ4Bytes, r.Stable)
	}
}

func truncateName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
