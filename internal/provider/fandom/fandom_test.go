package fandom

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"fioso/internal/provider"
)

func TestNormalizeWiki_InlineTemplate(t *testing.T) {
	t.Parallel()

	got, ok := NormalizeWiki([]byte(`{{Stock/Main|Current=A, B|Last=C|Before=}}`))
	require.True(t, ok)
	require.Equal(t, provider.WikiStock{
		Current:    []string{"A", "B"},
		Last:       []string{"C"},
		BeforeLast: []string{},
	}, got)
}

func TestNormalizeWiki_ValueOnNextLine(t *testing.T) {
	t.Parallel()

	got, ok := NormalizeWiki([]byte("{{Stock/Main\n|Current =\n Dragon, Dough\n|Last = Rumble\n|Before =\n}}"))
	require.True(t, ok)
	require.Equal(t, provider.WikiStock{
		Current:    []string{"Dragon", "Dough"},
		Last:       []string{"Rumble"},
		BeforeLast: []string{},
	}, got)
}

func TestNormalizeWiki_Golden(t *testing.T) {
	t.Parallel()

	payload, err := os.ReadFile(filepath.Join("testdata", "stock.wiki"))
	require.NoError(t, err)

	got, ok := NormalizeWiki(payload)
	require.True(t, ok)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join("testdata", "stock.golden.json"))
	require.NoError(t, err)

	var gotAny, wantAny any
	require.NoError(t, json.Unmarshal(b, &gotAny))
	require.NoError(t, json.Unmarshal(want, &wantAny))
	if diff := cmp.Diff(wantAny, gotAny); diff != "" {
		t.Fatalf("wiki mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeWiki_EditPage(t *testing.T) {
	t.Parallel()

	// Arrange: the edit view wraps the wikitext in a textarea.
	page, err := os.ReadFile(filepath.Join("testdata", "edit.html"))
	require.NoError(t, err)

	// Act
	got, ok := NormalizeWiki(page)

	// Assert
	require.True(t, ok)
	require.Equal(t, provider.WikiStock{
		Current:    []string{"Dragon", "Dough"},
		Last:       []string{"Rumble"},
		BeforeLast: []string{},
	}, got)
}

func TestWikitext_PlainBodyPassesThrough(t *testing.T) {
	t.Parallel()

	require.Equal(t, "{{Stock/Main|Current=A}}", Wikitext([]byte("{{Stock/Main|Current=A}}")))
}

func TestNormalizeWiki_CaseInsensitiveKeys(t *testing.T) {
	t.Parallel()

	got, ok := NormalizeWiki([]byte("{{Stock/Main\n|current= Ice\n|LAST=Spin, Bomb\n}}"))
	require.True(t, ok)
	require.Equal(t, provider.WikiStock{
		Current:    []string{"Ice"},
		Last:       []string{"Spin", "Bomb"},
		BeforeLast: []string{},
	}, got)
}

func TestNormalizeWiki_MissingTemplate(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "null", "{}", "{{Stock/Other|Current=A}}", "{{Stock/Main}}"} {
		got, ok := NormalizeWiki([]byte(in))
		require.Falsef(t, ok, "input %q", in)
		require.Nil(t, got)
	}
}
