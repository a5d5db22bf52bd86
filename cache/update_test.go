package cache

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dgnsrekt/revoltkit/model"
	"github.com/dgnsrekt/revoltkit/wire"
)

func newTestUpdater(t *testing.T) (*Updater, *Store, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	store := NewStore()
	return NewUpdater(store, zap.New(core)), store, logs
}

func strptr(s string) *string { return &s }

func TestApplyEventSequenceFold(t *testing.T) {
	u, store, _ := newTestUpdater(t)

	events := []wire.Event{
		wire.ChannelCreate{Channel: model.Channel{ID: "c1", Name: "general", Description: "talk"}},
		wire.ChannelUpdate{ID: "c1", Data: model.PartialChannel{Name: strptr("lounge")}},
		wire.ChannelUpdate{ID: "c1", Data: model.PartialChannel{Description: strptr("chill")}},
		wire.ChannelCreate{Channel: model.Channel{ID: "c2", Name: "random"}},
		wire.ChannelDelete{ID: "c2"},
	}
	for _, ev := range events {
		u.Apply(ev)
	}

	snap, ok := store.Get(model.KindChannel, "c1")
	if !ok {
		t.Fatal("expected c1 present")
	}
	ch := snap.(model.Channel)
	if ch.Name != "lounge" || ch.Description != "chill" {
		t.Errorf("fold mismatch: %+v", ch)
	}

	if _, ok := store.Get(model.KindChannel, "c2"); ok {
		t.Error("deleted channel survived")
	}
}

func TestApplyReadyReplacesBaseline(t *testing.T) {
	u, store, _ := newTestUpdater(t)

	// Pre-existing state from an earlier session.
	store.Put(model.KindServer, model.Server{ID: "stale", Name: "old"})
	store.Put(model.KindMessage, model.Message{ID: "mstale"})

	u.Apply(wire.Ready{
		Users:    []model.User{{ID: "u1", Username: "ana"}},
		Servers:  []model.Server{{ID: "s1", Name: "home"}},
		Channels: []model.Channel{{ID: "c1", Name: "general"}},
		Members:  []model.Member{{ServerID: "s1", UserID: "u1"}},
	})

	if _, ok := store.Get(model.KindServer, "stale"); ok {
		t.Error("stale server survived Ready baseline")
	}
	if _, ok := store.Get(model.KindMessage, "mstale"); ok {
		t.Error("stale message survived Ready baseline")
	}
	if _, ok := store.Get(model.KindServer, "s1"); !ok {
		t.Error("fresh baseline server missing")
	}
	if _, ok := store.Get(model.KindMember, model.MemberID("s1", "u1")); !ok {
		t.Error("fresh baseline member missing")
	}
}

func TestApplyDuplicateCreateOverwrites(t *testing.T) {
	u, store, _ := newTestUpdater(t)

	u.Apply(wire.ChannelCreate{Channel: model.Channel{ID: "c1", Name: "first"}})
	u.Apply(wire.ChannelCreate{Channel: model.Channel{ID: "c1", Name: "second"}})

	snap, _ := store.Get(model.KindChannel, "c1")
	if snap.(model.Channel).Name != "second" {
		t.Errorf("duplicate create must overwrite, got %+v", snap)
	}
}

func TestApplyUpdateForUnknownIDIsDroppedWithWarning(t *testing.T) {
	u, store, logs := newTestUpdater(t)

	u.Apply(wire.ChannelUpdate{ID: "ghost", Data: model.PartialChannel{Name: strptr("x")}})

	if store.Len(model.KindChannel) != 0 {
		t.Error("update for unknown id must not fabricate a snapshot")
	}
	if logs.FilterMessage("dropping update for unknown entity").Len() != 1 {
		t.Error("expected a warning for the dropped update")
	}
}

func TestApplyClearDirectiveResetsField(t *testing.T) {
	u, store, _ := newTestUpdater(t)

	store.Put(model.KindServer, model.Server{ID: "s1", Name: "home", Description: "the place", Icon: "icon-1"})
	u.Apply(wire.ServerUpdate{ID: "s1", Clear: "Icon"})

	snap, _ := store.Get(model.KindServer, "s1")
	sv := snap.(model.Server)
	if sv.Icon != "" {
		t.Errorf("cleared icon must be reset, got %q", sv.Icon)
	}
	if sv.Name != "home" || sv.Description != "the place" {
		t.Errorf("uncleared fields must survive: %+v", sv)
	}

	store.Put(model.KindMember, model.Member{ServerID: "s1", UserID: "u1", Nickname: "ana"})
	u.Apply(wire.ServerMemberUpdate{ID: wire.MemberRef{Server: "s1", User: "u1"}, Clear: "Nickname"})

	snap, _ = store.Get(model.KindMember, model.MemberID("s1", "u1"))
	if snap.(model.Member).Nickname != "" {
		t.Errorf("cleared nickname must be reset, got %+v", snap)
	}

	store.Put(model.KindUser, model.User{ID: "u1", Username: "ana", StatusText: "afk"})
	u.Apply(wire.UserUpdate{ID: "u1", Clear: "StatusText"})

	snap, _ = store.Get(model.KindUser, "u1")
	us := snap.(model.User)
	if us.StatusText != "" || us.Username != "ana" {
		t.Errorf("expected status cleared and username kept, got %+v", us)
	}
}

func TestApplyDeleteUnknownIDIsSilentNoop(t *testing.T) {
	u, store, logs := newTestUpdater(t)

	u.Apply(wire.MessageDelete{ID: "never-seen", Channel: "c1"})

	if store.Len(model.KindMessage) != 0 {
		t.Error("store should stay empty")
	}
	if logs.Len() != 0 {
		t.Error("delete of unknown id should not warn")
	}
	if _, ok := store.Get(model.KindMessage, "never-seen"); ok {
		t.Error("get after delete of unknown id must be absent")
	}
}

func TestApplyMessageCreateTouchesChannelPointer(t *testing.T) {
	u, store, _ := newTestUpdater(t)

	u.Apply(wire.ChannelCreate{Channel: model.Channel{ID: "c1", Name: "general"}})
	u.Apply(wire.MessageCreate{Message: model.Message{ID: "m1", Channel: "c1", Author: "u1", Content: "hi"}})

	snap, _ := store.Get(model.KindChannel, "c1")
	if snap.(model.Channel).LastMessageID != "m1" {
		t.Errorf("expected last message pointer m1, got %+v", snap)
	}
}

func TestApplyMemberJoinLeave(t *testing.T) {
	u, store, _ := newTestUpdater(t)

	u.Apply(wire.ServerMemberJoin{ID: "s1", User: "u1"})
	if _, ok := store.Get(model.KindMember, model.MemberID("s1", "u1")); !ok {
		t.Fatal("expected member after join")
	}

	u.Apply(wire.ServerMemberUpdate{
		ID:   wire.MemberRef{Server: "s1", User: "u1"},
		Data: model.PartialMember{Nickname: strptr("ana")},
	})
	snap, _ := store.Get(model.KindMember, model.MemberID("s1", "u1"))
	if snap.(model.Member).Nickname != "ana" {
		t.Errorf("expected patched nickname, got %+v", snap)
	}

	u.Apply(wire.ServerMemberLeave{ID: "s1", User: "u1"})
	if _, ok := store.Get(model.KindMember, model.MemberID("s1", "u1")); ok {
		t.Error("member should be gone after leave")
	}
}

func TestApplyNonCacheEventsAreIgnored(t *testing.T) {
	u, store, _ := newTestUpdater(t)

	u.Apply(wire.Pong{Nonce: 1})
	u.Apply(wire.Authenticated{SessionID: "s"})
	u.Apply(wire.ChannelStartTyping{ID: "c1", User: "u1"})
	u.Apply(wire.Unknown{Type: "Whatever"})

	for _, k := range model.Kinds {
		if store.Len(k) != 0 {
			t.Errorf("kind %s unexpectedly populated", k)
		}
	}
}
