package outline

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMerge_AllValid(t *testing.T) {
	chunks := []ChunkOutline{
		{Raw: `{"Intro": "opening remarks"}`},
		{Raw: `{"Middle": "main argument", "Aside": "tangent"}`},
	}

	merged, titles := Merge(chunks, testLogger())
	if len(merged) != 2 {
		t.Fatalf("merged size = %d, want 2", len(merged))
	}
	if merged[0] == nil || merged[1] == nil {
		t.Fatal("expected entries at indices 0 and 1")
	}

	want := []string{"Intro", "Middle", "Aside"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want %v", titles, want)
	}
}

func TestMerge_SkipsMalformedChunks(t *testing.T) {
	chunks := []ChunkOutline{
		{Raw: `{"Good A": "a"}`},
		{Raw: `this is not json`},
		{Raw: `{"Good C": "c"}`},
	}

	merged, titles := Merge(chunks, testLogger())
	if len(merged) != 2 {
		t.Fatalf("merged size = %d, want 2", len(merged))
	}
	// Surviving chunks keep their original indices.
	if _, ok := merged[0]; !ok {
		t.Error("missing chunk 0")
	}
	if _, ok := merged[1]; ok {
		t.Error("malformed chunk 1 should be absent")
	}
	if _, ok := merged[2]; !ok {
		t.Error("missing chunk 2")
	}

	want := []string{"Good A", "Good C"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want %v", titles, want)
	}
}

func TestMerge_RetainsDuplicateTitles(t *testing.T) {
	chunks := []ChunkOutline{
		{Raw: `{"Recap": "first"}`},
		{Raw: `{"Recap": "second"}`},
	}
	_, titles := Merge(chunks, testLogger())
	want := []string{"Recap", "Recap"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want %v", titles, want)
	}
}

func TestMerge_PreParsedNodesSkipParse(t *testing.T) {
	n := Branch()
	n.Add("Ready", Leaf("already parsed"))
	merged, titles := Merge([]ChunkOutline{{Node: n}}, testLogger())
	if merged[0] != n {
		t.Error("pre-parsed node should be used as-is")
	}
	if !reflect.DeepEqual(titles, []string{"Ready"}) {
		t.Errorf("titles = %v", titles)
	}
}

func TestComposite_ConcatenatesInChunkOrder(t *testing.T) {
	chunks := []ChunkOutline{
		{Raw: `{"B": "from chunk 0"}`},
		{Raw: `bad`},
		{Raw: `{"A": {"A1": "nested"}}`},
	}
	merged, _ := Merge(chunks, testLogger())
	root := Composite(merged, len(chunks))

	want := []string{"B", "A"}
	if got := root.Titles(); !reflect.DeepEqual(got, want) {
		t.Errorf("Titles() = %v, want %v", got, want)
	}
	if got := root.Child("A").Child("A1").Description(); got != "nested" {
		t.Errorf("nested description = %q", got)
	}
}

func TestComposite_RepeatedTitleTakesLaterSubtree(t *testing.T) {
	chunks := []ChunkOutline{
		{Raw: `{"Recap": "early", "Other": "o"}`},
		{Raw: `{"Recap": "late"}`},
	}
	merged, _ := Merge(chunks, testLogger())
	root := Composite(merged, len(chunks))

	// First position, later content.
	want := []string{"Recap", "Other"}
	if got := root.Titles(); !reflect.DeepEqual(got, want) {
		t.Errorf("Titles() = %v, want %v", got, want)
	}
	if got := root.Child("Recap").Description(); got != "late" {
		t.Errorf("Recap description = %q, want %q", got, "late")
	}
}
