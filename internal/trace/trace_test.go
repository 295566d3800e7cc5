package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"off": LevelOff, "PHASE": LevelPhase, " detail ": LevelDetail, "debug": LevelDebug}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelScopes(t *testing.T) {
	if !LevelPhase.ShouldEmit(ScopePass) || LevelPhase.ShouldEmit(ScopeItem) {
		t.Fatalf("phase level must stop at passes")
	}
	if !LevelDetail.ShouldEmit(ScopeItem) || LevelDetail.ShouldEmit(ScopeNode) {
		t.Fatalf("detail level must stop at items")
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)

	pass, ctx := Start(ctx, ScopePass, "rvalues")
	item, _ := Start(ctx, ScopeItem, "item:f")
	item.WithExtra("consumes", "3").End("")
	pass.End("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("want 4 events, got %d:\n%s", len(lines), buf.String())
	}
	var ev struct {
		Kind     string            `json:"kind"`
		Name     string            `json:"name"`
		ParentID uint64            `json:"parent_id"`
		Extra    map[string]string `json:"extra"`
	}
	if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if ev.Kind != "end" || ev.Name != "item:f" || ev.ParentID != pass.ID() || ev.Extra["consumes"] != "3" {
		t.Fatalf("unexpected item end event: %+v", ev)
	}
}

func TestRingTracerKeepsLastEvents(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		ring.Emit(&Event{Kind: KindPoint, Scope: ScopeNode, Name: name})
	}
	got := ring.Snapshot()
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "c" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(buf.String(), "c") {
		t.Fatalf("dump misses events: %q", buf.String())
	}
}

func TestDisabledTracerIsSilent(t *testing.T) {
	span, ctx := Start(context.Background(), ScopePass, "x")
	if span.ID() != 0 {
		t.Fatalf("nop span must have zero id")
	}
	if CurrentSpan(ctx).SpanID != 0 {
		t.Fatalf("nop span must not be propagated")
	}
	Point(ctx, ScopeNode, "use", "")
	span.End("")
}

func TestLaneIsInheritedByNestedSpans(t *testing.T) {
	ring := NewRingTracer(16, LevelDebug)
	ctx := WithLane(WithTracer(context.Background(), ring), 2)

	item, ctx := Start(ctx, ScopeItem, "item:f")
	Point(ctx, ScopeNode, "unsized-move", "str")
	item.End("")

	events := ring.Snapshot()
	if len(events) != 3 {
		t.Fatalf("want 3 events, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Lane != 3 {
			t.Fatalf("event %s on lane %d, want 3", ev.Name, ev.Lane)
		}
	}
	if events[1].ParentID != item.ID() {
		t.Fatalf("point must hang under the item span")
	}
	line := string(FormatEvent(&events[1], FormatText))
	if !strings.Contains(line, "w3 ") || !strings.Contains(line, "unsized-move (str)") {
		t.Fatalf("unexpected text line: %q", line)
	}
}

func TestHeartbeatReportsOpenSpans(t *testing.T) {
	ring := NewRingTracer(64, LevelPhase)
	ctx := WithTracer(context.Background(), ring)
	span, _ := Start(ctx, ScopePass, "rvalues")

	hb := StartHeartbeat(ring, 5*time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	var beat *Event
	for beat == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
		for _, ev := range ring.Snapshot() {
			if ev.Kind == KindHeartbeat {
				beat = &ev
				break
			}
		}
	}
	hb.Stop()
	hb.Stop()
	span.End("")

	if beat == nil {
		t.Fatalf("no heartbeat recorded")
	}
	if beat.Extra["open"] == "" || beat.Extra["open"] == "0" {
		t.Fatalf("heartbeat must count the open pass span: %v", beat.Extra)
	}
	var nilBeat *Heartbeat
	nilBeat.Stop()
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatalf("no heartbeat without tracing")
	}
}

func TestNewSelectsStorage(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf, RingSize: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if FindRing(tr) == nil {
		t.Fatalf("both mode must keep a ring")
	}
	span, _ := Start(WithTracer(context.Background(), tr), ScopeDriver, "check")
	span.End("")
	if !strings.Contains(buf.String(), "check") || FindRing(tr).Len() != 2 {
		t.Fatalf("events must reach stream and ring: %q", buf.String())
	}

	off, err := New(Config{Level: LevelOff, Mode: ModeStream})
	if err != nil || off.Enabled() {
		t.Fatalf("off level must give a disabled tracer")
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if m, _ := ParseMode("RING"); m.String() != "ring" {
		t.Fatalf("mode round trip failed: %v", m)
	}
	if resolveFormat(Config{OutputPath: "out.ndjson"}) != FormatNDJSON {
		t.Fatalf("ndjson extension must select NDJSON")
	}
}
