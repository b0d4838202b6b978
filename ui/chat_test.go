package ui

import (
	"context"
	"flash-chat/domain"
	"flash-chat/errors"
	"flash-chat/feed"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	me       string
	posted   []string
	postErr  error
	signOuts int
}

func (f *fakeChat) Join(domain.RoomID, feed.Callbacks) error { return nil }

func (f *fakeChat) Post(_ context.Context, body string) error {
	f.posted = append(f.posted, body)
	return f.postErr
}

func (f *fakeChat) Leave() {}

func (f *fakeChat) SignOut() error {
	f.signOuts++
	return nil
}

func (f *fakeChat) Me() (string, bool) { return f.me, f.me != "" }

func newModel(chat *fakeChat) Model {
	m, _ := NewModel(chat, "general").Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return m.(Model)
}

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

// press applies key and runs the resulting command back into the model.
func press(t *testing.T, m Model, key tea.KeyType) Model {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: key})
	require.NotNil(t, cmd)
	next, _ = next.Update(cmd())
	return next.(Model)
}

func TestModel_Send_Clears_Input_On_Success(t *testing.T) {
	req := require.New(t)
	chat := &fakeChat{me: "alice@example.com"}
	m := typeText(newModel(chat), "hello")
	req.Equal("hello", m.Input())

	m = press(t, m, tea.KeyEnter)

	req.Equal([]string{"hello"}, chat.posted)
	req.Empty(m.Input())
	req.Empty(m.Status())
	req.Empty(m.Messages(), "the list only changes through the feed")
}

func TestModel_Send_Keeps_Input_On_Failure(t *testing.T) {
	req := require.New(t)
	chat := &fakeChat{
		me:      "alice@example.com",
		postErr: errors.NewSendError(errors.ErrQuotaExceeded),
	}
	m := typeText(newModel(chat), "too long")

	m = press(t, m, tea.KeyEnter)

	req.Equal("too long", m.Input())
	req.Contains(m.Status(), "quota")
}

func TestModel_Send_Ignores_Enter_While_Sending(t *testing.T) {
	req := require.New(t)
	chat := &fakeChat{me: "alice@example.com"}
	m := typeText(newModel(chat), "hello")

	// Given a send in flight
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	req.NotNil(cmd)
	m = next.(Model)
	req.True(m.Sending())

	// When Enter is pressed again and more text is typed
	next, again := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	req.Nil(again)
	m = typeText(next.(Model), " world")

	// Then the body is posted once and the new text survives the reset
	next, _ = m.Update(cmd())
	m = next.(Model)
	req.Equal([]string{"hello"}, chat.posted)
	req.Equal(" world", m.Input())
	req.False(m.Sending())
}

func TestModel_Send_Failure_Allows_Retry(t *testing.T) {
	req := require.New(t)
	chat := &fakeChat{me: "alice@example.com", postErr: errors.ErrUnavailable}
	m := typeText(newModel(chat), "hello")

	m = press(t, m, tea.KeyEnter)
	req.False(m.Sending())

	chat.postErr = nil
	m = press(t, m, tea.KeyEnter)

	req.Equal([]string{"hello", "hello"}, chat.posted)
	req.Empty(m.Input())
}

func TestModel_FeedMsg_Replaces_Messages(t *testing.T) {
	req := require.New(t)
	m := newModel(&fakeChat{me: "alice@example.com"})
	at := time.Date(2020, 6, 29, 10, 0, 0, 0, time.UTC)
	first := []domain.Message{{Sender: "bob@example.com", Body: "hi", SentAt: at}}
	second := append(first, domain.Message{Sender: "alice@example.com", Body: "hey", SentAt: at.Add(time.Minute)})

	next, _ := m.Update(FeedMsg{Messages: first})
	next, _ = next.Update(FeedMsg{Messages: second})
	m = next.(Model)

	req.Equal(second, m.Messages())
	req.True(m.viewport.AtBottom())
	req.Contains(m.View(), "hey")
	req.Contains(m.View(), "bob@example.com")
}

func TestModel_FeedErrMsg_Keeps_Messages(t *testing.T) {
	req := require.New(t)
	m := newModel(&fakeChat{me: "alice@example.com"})
	messages := []domain.Message{{Sender: "bob@example.com", Body: "hi", SentAt: time.Now()}}
	next, _ := m.Update(FeedMsg{Messages: messages})

	next, _ = next.Update(FeedErrMsg{Err: errors.NewSubscriptionError(errors.ErrPermissionDenied)})
	m = next.(Model)

	req.Equal(messages, m.Messages())
	req.Contains(m.Status(), "permission")
}

func TestModel_Logout_Signs_Out_And_Quits(t *testing.T) {
	req := require.New(t)
	chat := &fakeChat{me: "alice@example.com"}
	m := newModel(chat)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	req.NotNil(cmd)
	next, quit := next.Update(cmd())

	req.Equal(1, chat.signOuts)
	req.True(next.(Model).LoggedOut())
	req.NotNil(quit)
	req.IsType(tea.QuitMsg{}, quit())
}

func TestModel_Escape_Quits_Without_Logout(t *testing.T) {
	req := require.New(t)
	chat := &fakeChat{me: "alice@example.com"}

	next, cmd := newModel(chat).Update(tea.KeyMsg{Type: tea.KeyEsc})

	req.NotNil(cmd)
	req.IsType(tea.QuitMsg{}, cmd())
	req.False(next.(Model).LoggedOut())
	req.Zero(chat.signOuts)
}

func TestCallbacks_Forward_To_Program(t *testing.T) {
	req := require.New(t)
	var got []tea.Msg
	callbacks := Callbacks(func(msg tea.Msg) { got = append(got, msg) })
	err := errors.NewSubscriptionError(errors.ErrUnavailable)

	callbacks.OnUpdate(nil)
	callbacks.OnError(err)

	req.Equal([]tea.Msg{FeedMsg{}, FeedErrMsg{Err: err}}, got)
}
