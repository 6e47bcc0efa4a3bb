package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type person struct {
	Doc  string
	Name string
}

func (p person) SearchFields() []string { return []string{p.Doc, p.Name} }

var people = []person{
	{Doc: "12345678", Name: "Ana Torres"},
	{Doc: "87654321", Name: "Luis QUISPE"},
	{Doc: "11223344", Name: "Rosa Quispe"},
}

func TestFilterCaseInsensitiveSubstring(t *testing.T) {
	got := Filter(people, "quis")
	assert.Equal(t, []person{people[1], people[2]}, got)

	got = Filter(people, "  TORRES ")
	assert.Equal(t, []person{people[0]}, got)

	got = Filter(people, "4321")
	assert.Equal(t, []person{people[1]}, got)

	assert.Empty(t, Filter(people, "zzz"))
}

func TestEmptyTermRestoresOriginal(t *testing.T) {
	for _, term := range []string{"", "ana", "quispe", "nobody"} {
		narrowed := Filter(people, term)
		assert.Equal(t, narrowed, Filter(narrowed, ""), "empty term must be identity for %q", term)
	}
	assert.Equal(t, people, Filter(people, ""))
	assert.Equal(t, people, Filter(people, "   "))
}

func TestByCustomFields(t *testing.T) {
	got := By(people, "rosa", func(p person) []string { return []string{p.Doc} })
	assert.Empty(t, got)

	got = By(people, "rosa", func(p person) []string { return []string{p.Name} })
	assert.Equal(t, []person{people[2]}, got)
}
