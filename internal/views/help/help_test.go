package help

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
)

var bindings = []key.Binding{
	key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "start probes")),
	key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	key.NewBinding(key.WithKeys("x")),
}

func TestMarkdownListsBindings(t *testing.T) {
	md := Markdown(bindings)
	if !strings.Contains(md, "| `r` | start probes |") {
		t.Errorf("missing start binding:\n%s", md)
	}
	if strings.Contains(md, "`x`") {
		t.Error("binding without help text should be skipped")
	}
}

func TestRenderPlain(t *testing.T) {
	out, err := Render(Markdown(bindings), 80, "notty")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"start probes", "quit", "Trace Output"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered help missing %q:\n%s", want, out)
		}
	}
}

func TestViewFallsBackOnBadStyle(t *testing.T) {
	v := View(bindings, 100, "no-such-style")
	if !strings.Contains(v, "start probes") {
		t.Errorf("fallback view missing content:\n%s", v)
	}
}
