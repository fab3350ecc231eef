package xmlwriter

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterBuildsOrderedTree(t *testing.T) {
	e := NewEmitter()
	e.Open("Document")
	e.Attr("xmlns", "urn:test")
	e.Open("Hdr")
	e.Leaf("B", "2")
	e.Leaf("A", "1", Attr{Name: "Ccy", Value: "EUR"})
	e.Close()
	e.Close()

	root, err := e.Document()
	require.NoError(t, err)

	assert.Equal(t, "Document", root.Name)
	ns, ok := root.AttrValue("xmlns")
	assert.True(t, ok)
	assert.Equal(t, "urn:test", ns)

	hdr := root.Child("Hdr")
	require.NotNil(t, hdr)
	require.Len(t, hdr.Children, 2)
	assert.Equal(t, "B", hdr.Children[0].Name)
	assert.Equal(t, "A", hdr.Children[1].Name)
	assert.Equal(t, "1", root.Find("Hdr/A").Value)
	ccy, _ := root.Find("Hdr/A").AttrValue("Ccy")
	assert.Equal(t, "EUR", ccy)
	assert.Nil(t, root.Find("Hdr/C"))
}

func TestEmitterProtocolErrors(t *testing.T) {
	t.Run("unclosed", func(t *testing.T) {
		e := NewEmitter()
		e.Open("A")
		_, err := e.Document()
		assert.ErrorIs(t, err, ErrUnclosedElement)
	})

	t.Run("close without open", func(t *testing.T) {
		e := NewEmitter()
		e.Close()
		_, err := e.Document()
		assert.ErrorIs(t, err, ErrNoOpenElement)
	})

	t.Run("two roots", func(t *testing.T) {
		e := NewEmitter()
		e.Leaf("A", "1")
		e.Leaf("B", "2")
		_, err := e.Document()
		assert.ErrorIs(t, err, ErrMultipleRoots)
	})

	t.Run("mixed content", func(t *testing.T) {
		e := NewEmitter()
		e.Open("A")
		e.Leaf("B", "1")
		e.Text("x")
		e.Close()
		_, err := e.Document()
		assert.ErrorIs(t, err, ErrMixedContent)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := NewEmitter().Document()
		assert.ErrorIs(t, err, ErrNoOpenElement)
	})
}

func TestMarshal(t *testing.T) {
	e := NewEmitter()
	e.Open("Document")
	e.Attr("xmlns", "urn:a&b")
	e.Leaf("Nm", "Müller & <Söhne>")
	e.Leaf("InstdAmt", "12.50", Attr{Name: "Ccy", Value: "EUR"})
	e.Open("PmtTpInf")
	e.Close()
	e.Close()

	root, err := e.Document()
	require.NoError(t, err)

	out, err := Marshal(root)
	require.NoError(t, err)

	expected := `<?xml version="1.0" encoding="UTF-8"?>
<Document xmlns="urn:a&amp;b">
  <Nm>Müller &amp; &lt;Söhne&gt;</Nm>
  <InstdAmt Ccy="EUR">12.50</InstdAmt>
  <PmtTpInf/>
</Document>
`
	assert.Equal(t, expected, string(out))
}

func TestMarshalWithoutDeclaration(t *testing.T) {
	opts := DefaultGenerateOptions()
	opts.IncludeXMLDeclaration = false
	opts.Indent = "\t"

	out, err := MarshalWithOptions(&Element{Name: "A", Children: []*Element{{Name: "B", Value: "'"}}}, opts)
	require.NoError(t, err)
	assert.Equal(t, "<A>\n\t<B>&#39;</B>\n</A>\n", string(out))

	_, err = Marshal(nil)
	assert.Error(t, err)
}

func TestMarshalKeepsDocumentWellFormed(t *testing.T) {
	root := &Element{Name: "RmtInf", Children: []*Element{
		{Name: "Ustrd", Value: "Inv\x0242 \"q\" <a>\tb"},
		{Name: "Nm", Value: "x", Attributes: []Attr{{Name: "k", Value: "a\x1b\"b"}}},
	}}

	out, err := Marshal(root)
	require.NoError(t, err)

	decoder := xml.NewDecoder(strings.NewReader(string(out)))
	var texts []string
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if cd, ok := token.(xml.CharData); ok && strings.TrimSpace(string(cd)) != "" {
			texts = append(texts, string(cd))
		}
	}
	assert.Equal(t, []string{"Inv\uFFFD42 \"q\" <a>\tb", "x"}, texts)
}
