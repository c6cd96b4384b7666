package viewmanager

import (
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/wowup/wowup-shell/internal/extension"
)

type stubFrame struct {
	name   string
	closed int
	err    error
}

func (f *stubFrame) Content() string { return f.name }

func (f *stubFrame) Close() error {
	f.closed++
	return f.err
}

type stubFactory struct {
	created []*stubFrame
	fail    map[string]bool
}

func (s *stubFactory) NewFrame(meta extension.Metadata) (Frame, error) {
	if s.fail[meta.Name] {
		return nil, errors.New("no page")
	}
	f := &stubFrame{name: meta.Name}
	s.created = append(s.created, f)
	return f, nil
}

func meta(name string) extension.Metadata {
	return extension.Metadata{Name: name, Version: "1.0"}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestHandleLoaded_FirstIsActiveAndDisplayed(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m := New(&stubFactory{}, 2, WithClock(fixedClock(at)))

	first := m.HandleLoaded(meta("alpha"))
	second := m.HandleLoaded(meta("beta"))

	if !first.IsActive || !first.LastActive.Equal(at) {
		t.Errorf("first state = %+v, want active at %v", first, at)
	}
	if second.IsActive || !second.LastActive.IsZero() {
		t.Errorf("second state = %+v, want inactive and never active", second)
	}
	if m.Displayed() != first {
		t.Error("first extension should be displayed")
	}
	if m.Active() != first {
		t.Error("Active() should return the first extension")
	}
}

func TestHandleLoaded_FrameCap(t *testing.T) {
	factory := &stubFactory{}
	m := New(factory, 2)

	a := m.HandleLoaded(meta("alpha"))
	b := m.HandleLoaded(meta("beta"))
	c := m.HandleLoaded(meta("gamma"))

	if !a.HasFrame() || !b.HasFrame() {
		t.Error("first two extensions should have frames")
	}
	if c.HasFrame() {
		t.Error("third extension should not get a frame")
	}
	if m.FrameCount() != 2 || len(factory.created) != 2 {
		t.Errorf("frames = %d (created %d), want 2", m.FrameCount(), len(factory.created))
	}
	if len(m.States()) != 3 {
		t.Errorf("states = %d, want 3", len(m.States()))
	}
}

func TestHandleLoaded_FrameFailureLeavesNoFrame(t *testing.T) {
	m := New(&stubFactory{fail: map[string]bool{"alpha": true}}, 2)

	a := m.HandleLoaded(meta("alpha"))
	b := m.HandleLoaded(meta("beta"))

	if a.HasFrame() {
		t.Error("failed frame should leave state without frame")
	}
	if !a.IsActive {
		t.Error("first extension is active even without a frame")
	}
	if m.Displayed() != nil {
		t.Error("display should be empty when the active extension has no frame")
	}
	if !b.HasFrame() || m.FrameCount() != 1 {
		t.Errorf("beta frame = %v, count = %d", b.HasFrame(), m.FrameCount())
	}
}

func TestSelect_SwapsDisplayedFrame(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	m := New(&stubFactory{}, 2, WithClock(fixedClock(at)))
	a := m.HandleLoaded(meta("alpha"))
	b := m.HandleLoaded(meta("beta"))

	got, err := m.Select("beta")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got != b || m.Displayed() != b {
		t.Error("beta should be displayed")
	}
	if a.IsActive || !b.IsActive {
		t.Errorf("active flags = %v/%v, want false/true", a.IsActive, b.IsActive)
	}
	if !b.LastActive.Equal(at) {
		t.Errorf("LastActive = %v, want %v", b.LastActive, at)
	}
	if a.Frame.(*stubFrame).closed != 0 {
		t.Error("swapping must not close the previous frame")
	}
}

func TestSelect_WithoutFrameClearsDisplay(t *testing.T) {
	m := New(&stubFactory{}, 2)
	m.HandleLoaded(meta("alpha"))
	m.HandleLoaded(meta("beta"))
	c := m.HandleLoaded(meta("gamma"))

	if _, err := m.Select("gamma"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if m.Displayed() != nil {
		t.Error("display should be cleared for a frameless extension")
	}
	if !c.IsActive || c.LastActive.IsZero() {
		t.Errorf("gamma = %+v, want active with LastActive set", c)
	}
}

func TestSelect_UnknownName(t *testing.T) {
	m := New(&stubFactory{}, 2)
	a := m.HandleLoaded(meta("alpha"))
	before := a.LastActive

	if _, err := m.Select("ghost"); !errors.Is(err, ErrUnknownExtension) {
		t.Errorf("error = %v, want ErrUnknownExtension", err)
	}
	if !a.IsActive || m.Displayed() != a || !a.LastActive.Equal(before) {
		t.Error("unknown selection must not change state")
	}
}

func TestHandleLoaded_DuplicateReplacesFrame(t *testing.T) {
	factory := &stubFactory{}
	m := New(factory, 2)
	a := m.HandleLoaded(meta("alpha"))
	oldFrame := a.Frame.(*stubFrame)

	updated := meta("alpha")
	updated.Version = "2.0"
	again := m.HandleLoaded(updated)

	if again != a {
		t.Error("duplicate name should reuse the existing state")
	}
	if oldFrame.closed != 1 {
		t.Errorf("old frame closed %d times, want 1", oldFrame.closed)
	}
	if a.Metadata.Version != "2.0" || !a.HasFrame() || a.Frame == Frame(oldFrame) {
		t.Errorf("state = %+v, want new metadata and frame", a)
	}
	if m.FrameCount() != 1 || len(m.States()) != 1 {
		t.Errorf("frames = %d states = %d, want 1/1", m.FrameCount(), len(m.States()))
	}
	if m.Displayed() != a {
		t.Error("replacement of the active extension should stay displayed")
	}
}

func TestClose_DestroysAllFrames(t *testing.T) {
	factory := &stubFactory{}
	m := New(factory, 3)
	m.HandleLoaded(meta("alpha"))
	m.HandleLoaded(meta("beta"))
	factory.created[1].err = errors.New("stuck")

	if err := m.Close(); err == nil {
		t.Error("expected close error to be reported")
	}
	for _, f := range factory.created {
		if f.closed != 1 {
			t.Errorf("frame %s closed %d times, want 1", f.name, f.closed)
		}
	}
	if m.FrameCount() != 0 || m.Displayed() != nil {
		t.Error("no frames should remain after Close")
	}
	if len(m.States()) != 2 {
		t.Error("states should survive Close")
	}
}

func TestIndex(t *testing.T) {
	m := New(nil, 2)
	m.HandleLoaded(meta("alpha"))
	m.HandleLoaded(meta("beta"))

	if m.Index("beta") != 1 || m.Index("ghost") != -1 {
		t.Errorf("Index = %d/%d, want 1/-1", m.Index("beta"), m.Index("ghost"))
	}
}

func TestFrameCapProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxFrames := rapid.IntRange(1, 4).Draw(rt, "maxFrames")
		loads := rapid.IntRange(0, 10).Draw(rt, "loads")
		m := New(&stubFactory{}, maxFrames)

		var names []string
		for i := 0; i < loads; i++ {
			name := string(rune('a' + i))
			names = append(names, name)
			m.HandleLoaded(meta(name))
		}

		selections := rapid.SliceOf(rapid.IntRange(0, 10)).Draw(rt, "selections")
		for _, idx := range selections {
			if idx >= len(names) {
				continue
			}
			if _, err := m.Select(names[idx]); err != nil {
				rt.Fatalf("Select(%s): %v", names[idx], err)
			}

			active := 0
			for _, s := range m.States() {
				if s.IsActive {
					active++
				}
			}
			if active != 1 {
				rt.Fatalf("active states = %d, want 1", active)
			}
			if d := m.Displayed(); d != nil && d.Metadata.Name != names[idx] {
				rt.Fatalf("displayed %s, selected %s", d.Metadata.Name, names[idx])
			}
		}

		want := min(loads, maxFrames)
		if m.FrameCount() != want {
			rt.Fatalf("FrameCount() = %d, want %d", m.FrameCount(), want)
		}
		withFrames := 0
		for _, s := range m.States() {
			if s.HasFrame() {
				withFrames++
			}
		}
		if withFrames != want {
			rt.Fatalf("states with frames = %d, want %d", withFrames, want)
		}
	})
}
