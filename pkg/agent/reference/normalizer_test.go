package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeDoc struct {
	name string
	meta map[string]interface{}
}

func (d fakeDoc) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"name":      d.name,
		"meta_data": d.meta,
	}
}

type fakeGroup struct {
	items []interface{}
}

func (g fakeGroup) ReferenceItems() []interface{} {
	return g.items
}

func ref(fileName string) map[string]interface{} {
	return map[string]interface{}{
		"content":   "chunk of " + fileName,
		"meta_data": map[string]interface{}{"file_name": fileName},
	}
}

func TestNormalize_DedupByFilenameFirstSeenWins(t *testing.T) {
	first := ref("a.pdf")
	first["content"] = "first copy"
	second := ref("a.pdf")
	second["content"] = "second copy"

	out := Normalize([]interface{}{first, ref("b.pdf"), second})

	assert.Len(t, out, 2)
	assert.Equal(t, "first copy", out[0]["content"])
}

func TestNormalize_OrderPreserved(t *testing.T) {
	out := Normalize([]interface{}{ref("f1"), ref("f2"), ref("f1"), ref("f3")})

	names := make([]string, len(out))
	for i, r := range out {
		names[i] = r["meta_data"].(map[string]interface{})["file_name"].(string)
	}
	assert.Equal(t, []string{"f1", "f2", "f3"}, names)
}

func TestNormalize_GroupsAreSpliced(t *testing.T) {
	group := fakeGroup{items: []interface{}{ref("x.pdf"), ref("y.pdf")}}
	out := Normalize([]interface{}{group, ref("z.pdf")})

	assert.Len(t, out, 3)
}

func TestNormalize_MapGroupWrapperIsSpliced(t *testing.T) {
	wrapper := map[string]interface{}{
		"references": []interface{}{ref("x.pdf"), ref("x.pdf")},
	}
	out := Normalize([]interface{}{wrapper})

	assert.Len(t, out, 1)
}

func TestNormalize_TopLevelFilenameFallback(t *testing.T) {
	a := map[string]interface{}{"file_name": "doc.pdf", "v": 1}
	b := map[string]interface{}{"file_name": "doc.pdf", "v": 2}

	out := Normalize([]interface{}{a, b})

	assert.Len(t, out, 1)
	assert.Equal(t, 1, out[0]["v"])
}

func TestNormalize_NoIdentityAlwaysKept(t *testing.T) {
	a := map[string]interface{}{"note": "one"}
	b := map[string]interface{}{"note": "two"}

	out := Normalize([]interface{}{a, b})

	assert.Len(t, out, 2)
}

func TestNormalize_MappableExportPreferred(t *testing.T) {
	doc := fakeDoc{name: "d", meta: map[string]interface{}{"file_name": "d.pdf"}}
	out := Normalize([]interface{}{doc})

	assert.Len(t, out, 1)
	assert.Equal(t, "d", out[0]["name"])
}

func TestNormalize_UnknownShapeFallsBackToString(t *testing.T) {
	out := Normalize([]interface{}{42})

	assert.Len(t, out, 1)
	assert.Equal(t, "42", out[0]["raw"])
}

func TestNormalize_StructSerializedViaFields(t *testing.T) {
	type plain struct {
		FileName string `json:"file_name"`
	}
	out := Normalize([]interface{}{plain{FileName: "s.pdf"}, plain{FileName: "s.pdf"}})

	assert.Len(t, out, 1)
	assert.Equal(t, "s.pdf", out[0]["file_name"])
}

func TestNormalizeCitations_NoDedup(t *testing.T) {
	out := NormalizeCitations([]interface{}{ref("a.pdf"), ref("a.pdf")})

	assert.Len(t, out, 2)
}

func TestNormalize_Deterministic(t *testing.T) {
	input := []interface{}{ref("f1"), ref("f2"), ref("f1")}

	first := Normalize(input)
	second := Normalize(input)

	assert.Equal(t, first, second)
}
