package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jorge-barreto/refcollect/internal/events"
	"github.com/jorge-barreto/refcollect/internal/ux"
)

func TestAnnounce_PrintsEveryEmit(t *testing.T) {
	var buf bytes.Buffer
	prev := ux.Out
	ux.Out = &buf
	t.Cleanup(func() { ux.Out = prev })

	bus := events.NewBus()
	announce(bus, []string{events.ReferenceGenerated, "docsPublished"})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := bus.Emit(ctx, events.ReferenceGenerated); err != nil {
			t.Fatal(err)
		}
	}
	if err := bus.Emit(ctx, "docsPublished"); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if n := strings.Count(out, "◆ referenceGenerated"); n != 2 {
		t.Errorf("referenceGenerated printed %d times:\n%s", n, out)
	}
	if !strings.Contains(out, "◆ docsPublished") {
		t.Errorf("custom event not printed:\n%s", out)
	}
	if bus.Pending(events.ReferenceGenerated) != 1 {
		t.Errorf("announcement handler should stay registered")
	}
}
