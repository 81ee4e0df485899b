package fileset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSingleReferenceIsIdentity(t *testing.T) {
	assert.Equal(t, "1700000000-abc.pdf", Encode([]string{"1700000000-abc.pdf"}))
	assert.Equal(t, "https://res.example.com/image/upload/v1/exams/a.pdf",
		Encode([]string{"https://res.example.com/image/upload/v1/exams/a.pdf"}))
}

func TestEncodeMultipleReferencesIsJSONArray(t *testing.T) {
	encoded := Encode([]string{"p1.jpg", "p2.jpg"})
	assert.Equal(t, `["p1.jpg","p2.jpg"]`, encoded)
}

func TestDecodeRoundTripPreservesOrder(t *testing.T) {
	refs := []string{"c.jpg", "a.jpg", "b.jpg", "z.jpg"}
	assert.Equal(t, refs, Decode(Encode(refs)))
}

func TestDecodeSingleReference(t *testing.T) {
	assert.Equal(t, []string{"1700000000-abc.pdf"}, Decode("1700000000-abc.pdf"))
}

func TestDecodeNonJSONFallsBackToSingleFile(t *testing.T) {
	assert.Equal(t, []string{"not json at all"}, Decode("not json at all"))
}

func TestDecodeJSONArrayOfStrings(t *testing.T) {
	assert.Equal(t, []string{"page1.jpg", "page2.jpg"}, Decode(`["page1.jpg","page2.jpg"]`))
}

func TestDecodeJSONArrayOfNonStrings(t *testing.T) {
	// Still multi-file by the array-detection rule; elements are stringified.
	refs := Decode("[1,2,3]")
	require.Len(t, refs, 3)
	assert.Equal(t, []string{"1", "2", "3"}, refs)
}

func TestDecodeNonArrayJSONIsSingleFile(t *testing.T) {
	// Values that parse as JSON but are not arrays keep the legacy
	// single-file interpretation.
	assert.Equal(t, []string{"42"}, Decode("42"))
	assert.Equal(t, []string{"null"}, Decode("null"))
	assert.Equal(t, []string{`{"a":1}`}, Decode(`{"a":1}`))
	assert.Equal(t, []string{`"quoted.pdf"`}, Decode(`"quoted.pdf"`))
}

func TestIsMultiFile(t *testing.T) {
	assert.True(t, IsMultiFile(`["p1.jpg","p2.jpg"]`))
	assert.False(t, IsMultiFile("single.pdf"))
	assert.False(t, IsMultiFile(`["only.pdf"]`))
	assert.False(t, IsMultiFile("42"))
}
