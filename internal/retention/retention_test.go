package retention

import (
	"testing"

	"github.com/jorge-barreto/refcollect/internal/events"
	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Policy
	}{
		{"true", KeepPolicy()},
		{"false", EagerPolicy()},
		{"until:exit", Policy{Kind: RemoveOnEvent, Event: events.ContextClosed}},
		{"until:sitePublished", Policy{Kind: RemoveOnEvent, Event: "sitePublished"}},
		{" true ", KeepPolicy()},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"until:", "sometimes", ""} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail", in)
		}
	}
}

func TestRetains(t *testing.T) {
	if EagerPolicy().Retains() {
		t.Error("eager policy should not retain")
	}
	if !KeepPolicy().Retains() || !OnEvent("x").Retains() {
		t.Error("keep and on-event policies retain")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	type doc struct {
		Keep Policy `yaml:"keep"`
	}
	for _, src := range []string{"keep: true\n", "keep: false\n", "keep: until:exit\n", "keep: until:done\n"} {
		var d doc
		if err := yaml.Unmarshal([]byte(src), &d); err != nil {
			t.Fatalf("unmarshal %q: %v", src, err)
		}
		out, err := yaml.Marshal(d)
		if err != nil {
			t.Fatal(err)
		}
		var back doc
		if err := yaml.Unmarshal(out, &back); err != nil {
			t.Fatalf("re-unmarshal %q: %v", out, err)
		}
		if back != d {
			t.Errorf("round trip %q -> %q", src, out)
		}
	}
}

func TestYAMLRejectsMapping(t *testing.T) {
	var d struct {
		Keep Policy `yaml:"keep"`
	}
	if err := yaml.Unmarshal([]byte("keep: {a: b}\n"), &d); err == nil {
		t.Fatal("expected error for mapping")
	}
}
