package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/wowup/wowup-shell/internal/extension"
	"github.com/wowup/wowup-shell/internal/ipc"
	"github.com/wowup/wowup-shell/internal/viewmanager"
)

type textFrame string

func (f textFrame) Content() string { return string(f) }
func (textFrame) Close() error { return nil }

var textFrames = viewmanager.FrameFactoryFunc(func(meta extension.Metadata) (viewmanager.Frame, error) {
	return textFrame("page of " + meta.Name), nil
})

type activityLog struct {
	names []string
	err   error
}

func (a *activityLog) TouchActive(name string, _ time.Time) error {
	a.names = append(a.names, name)
	return a.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestModel(activity ActivityRecorder) Model {
	m := New(Options{
		AppVersion: "1.2.3",
		Views:      viewmanager.New(textFrames, 2),
		Activity:   activity,
		Logger:     quietLogger(),
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func loaded(name string) tea.Msg {
	return ExtensionLoadedMsg{Metadata: extension.Metadata{Name: name, Version: "1.0", Path: "/ext/" + name}}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_BeforeReady(t *testing.T) {
	m := New(Options{Logger: quietLogger()})
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q", got)
	}
}

func TestUpdate_FirstLoadedIsDisplayed(t *testing.T) {
	m := send(newTestModel(nil), loaded("alpha"), loaded("beta"))

	if a := m.ActiveExtension(); a == nil || a.Metadata.Name != "alpha" {
		t.Fatalf("active = %+v, want alpha", a)
	}
	view := m.View()
	if !strings.Contains(view, "page of alpha") {
		t.Errorf("view should show alpha's frame:\n%s", view)
	}
	if !strings.Contains(view, "beta") {
		t.Errorf("sidebar should list beta:\n%s", view)
	}
}

func TestUpdate_FirstLoadedRecordsActivity(t *testing.T) {
	activity := &activityLog{}
	send(newTestModel(activity), loaded("alpha"), loaded("beta"))

	if want := []string{"alpha"}; strings.Join(activity.names, ",") != strings.Join(want, ",") {
		t.Errorf("activity = %v, want %v", activity.names, want)
	}
}

func TestUpdate_TabCyclesAndRecordsActivity(t *testing.T) {
	activity := &activityLog{}
	m := send(newTestModel(activity), loaded("alpha"), loaded("beta"))

	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.ActiveExtension().Metadata.Name; got != "beta" {
		t.Errorf("after tab active = %s, want beta", got)
	}
	if !strings.Contains(m.View(), "page of beta") {
		t.Error("beta's frame should be displayed after tab")
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.ActiveExtension().Metadata.Name; got != "alpha" {
		t.Errorf("tab should wrap to alpha, got %s", got)
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := m.ActiveExtension().Metadata.Name; got != "beta" {
		t.Errorf("shift+tab should wrap to beta, got %s", got)
	}

	if want := []string{"alpha", "beta", "alpha", "beta"}; strings.Join(activity.names, ",") != strings.Join(want, ",") {
		t.Errorf("activity = %v, want %v", activity.names, want)
	}
}

func TestUpdate_NumberSelectsFramelessExtension(t *testing.T) {
	m := send(newTestModel(nil), loaded("alpha"), loaded("beta"), loaded("gamma"))

	m = send(m, runes("3"))

	if got := m.ActiveExtension().Metadata.Name; got != "gamma" {
		t.Fatalf("active = %s, want gamma", got)
	}
	if m.Views().Displayed() != nil {
		t.Error("display should be cleared for a frameless extension")
	}
	if !strings.Contains(m.View(), "gamma has no live frame") {
		t.Errorf("view should explain the missing frame:\n%s", m.View())
	}

	// Out of range is ignored.
	m = send(m, runes("9"))
	if got := m.ActiveExtension().Metadata.Name; got != "gamma" {
		t.Errorf("active = %s after out-of-range key, want gamma", got)
	}
}

func TestUpdate_ActivityErrorDoesNotBlockSelection(t *testing.T) {
	m := send(newTestModel(&activityLog{err: errors.New("db locked")}), loaded("alpha"), loaded("beta"))
	m = send(m, runes("2"))
	if got := m.ActiveExtension().Metadata.Name; got != "beta" {
		t.Errorf("active = %s, want beta", got)
	}
}

func TestUpdate_DetailsOverlay(t *testing.T) {
	m := send(newTestModel(nil), loaded("alpha"))

	m = send(m, runes("?"))
	if !m.showDetails {
		t.Fatal("? should open details")
	}
	if !strings.Contains(ansi.Strip(m.View()), "alpha") {
		t.Error("details should mention the extension")
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.showDetails {
		t.Error("esc should close details")
	}
}

func TestUpdate_DetailsIgnoredWithoutExtensions(t *testing.T) {
	m := send(newTestModel(nil), runes("?"))
	if m.showDetails {
		t.Error("details need an active extension")
	}
	if !strings.Contains(m.View(), "No extensions loaded") {
		t.Errorf("view = %q", m.View())
	}
}

func TestUpdate_Quit(t *testing.T) {
	_, cmd := newTestModel(nil).Update(runes("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestToastExpires(t *testing.T) {
	m := newTestModel(nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	m.ShowError("Copy failed", time.Second)
	if !strings.Contains(m.View(), "Copy failed") {
		t.Error("toast should be visible")
	}

	m.now = func() time.Time { return base.Add(2 * time.Second) }
	m = send(m, TickMsg(base.Add(2*time.Second)))
	if m.statusMsg != "" || m.statusIsError {
		t.Error("toast should clear after expiry")
	}
}

func TestDetailsMarkdown(t *testing.T) {
	s := &viewmanager.ViewState{
		Metadata: extension.Metadata{
			Name: "alpha", Version: "1.0", Path: "/ext/alpha",
			IconPath: "/ext/alpha/icon.svg", IconBase64: "data:image/svg+xml;charset=utf-8;base64,PHN2Zy8+",
		},
	}
	md := detailsMarkdown(s, 2)

	for _, want := range []string{"# alpha", "1.0", "/ext/alpha", "icon.svg", "none (limit 2)", `"name": "alpha"`} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "base64") {
		t.Error("markdown should omit the icon data URI")
	}
}

func TestForward_TranslatesMessages(t *testing.T) {
	pr, pw := io.Pipe()
	sender := ipc.NewSender(pw)
	go func() {
		_ = sender.Send(ipc.ExtensionLoaded(extension.Metadata{Name: "alpha", Version: "1"}))
		_ = sender.Send(ipc.ExtensionFailed("/ext/broken", errors.New("bad manifest")))
		_ = sender.Send(ipc.Message{Type: "unknown"})
		_ = sender.Close()
	}()

	var got []tea.Msg
	Forward(context.Background(), ipc.NewReceiver(pr), func(m tea.Msg) { got = append(got, m) }, quietLogger())

	if len(got) != 3 {
		t.Fatalf("messages = %#v, want 3", got)
	}
	if m, ok := got[0].(ExtensionLoadedMsg); !ok || m.Metadata.Name != "alpha" {
		t.Errorf("got[0] = %#v", got[0])
	}
	if m, ok := got[1].(ExtensionFailedMsg); !ok || m.Path != "/ext/broken" || m.Err != "bad manifest" {
		t.Errorf("got[1] = %#v", got[1])
	}
	if m, ok := got[2].(HostClosedMsg); !ok || m.Err != nil {
		t.Errorf("got[2] = %#v", got[2])
	}
}
