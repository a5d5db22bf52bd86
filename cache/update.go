package cache

import (
	"go.uber.org/zap"

	"github.com/dgnsrekt/revoltkit/model"
	"github.com/dgnsrekt/revoltkit/wire"
)

// Updater translates decoded gateway events into store mutations. It
// is driven by the dispatcher before subscribers see each event, so a
// subscriber can always rely on the cache already reflecting the event
// it was handed.
type Updater struct {
	store  *Store
	logger *zap.Logger
}

// NewUpdater creates an updater writing into store.
func NewUpdater(store *Store, logger *zap.Logger) *Updater {
	return &Updater{store: store, logger: logger}
}

// Apply folds one event into the store. Update events whose target is
// missing are dropped with a warning: that is out-of-order delivery
// relative to a create we never saw, recoverable, never fatal. Deletes
// for unknown ids are silent no-ops.
func (u *Updater) Apply(ev wire.Event) {
	switch e := ev.(type) {
	case wire.Ready:
		u.applyReady(e)

	case wire.MessageCreate:
		u.store.Put(model.KindMessage, e.Message)
		// Keep the owning channel's last-message pointer current.
		id := e.Message.ID
		u.store.Patch(model.KindChannel, e.Message.Channel, model.PartialChannel{LastMessageID: &id})

	case wire.MessageUpdate:
		if _, ok := u.store.Patch(model.KindMessage, e.ID, e.Data); !ok {
			u.warnMissing("MessageUpdate", e.ID)
		}

	case wire.MessageDelete:
		u.store.Remove(model.KindMessage, e.ID)

	case wire.ChannelCreate:
		u.store.Put(model.KindChannel, e.Channel)

	case wire.ChannelUpdate:
		if _, ok := u.store.Patch(model.KindChannel, e.ID, e.Patch()); !ok {
			u.warnMissing("ChannelUpdate", e.ID)
		}

	case wire.ChannelDelete:
		u.store.Remove(model.KindChannel, e.ID)

	case wire.ServerUpdate:
		if _, ok := u.store.Patch(model.KindServer, e.ID, e.Patch()); !ok {
			u.warnMissing("ServerUpdate", e.ID)
		}

	case wire.ServerDelete:
		u.store.Remove(model.KindServer, e.ID)

	case wire.ServerMemberJoin:
		u.store.Put(model.KindMember, model.Member{ServerID: e.ID, UserID: e.User})

	case wire.ServerMemberLeave:
		u.store.Remove(model.KindMember, model.MemberID(e.ID, e.User))

	case wire.ServerMemberUpdate:
		id := model.MemberID(e.ID.Server, e.ID.User)
		if _, ok := u.store.Patch(model.KindMember, id, e.Patch()); !ok {
			u.warnMissing("ServerMemberUpdate", id)
		}

	case wire.UserUpdate:
		if _, ok := u.store.Patch(model.KindUser, e.ID, e.Patch()); !ok {
			u.warnMissing("UserUpdate", e.ID)
		}
	}
	// Authenticated, Pong, Error, typing indicators, and unknown frames
	// carry no cacheable state.
}

// applyReady replaces the entire cache baseline with the bulk payload.
// Nothing from before the Ready survives unless it is in the new set.
func (u *Updater) applyReady(ev wire.Ready) {
	u.store.ClearAll()
	for _, us := range ev.Users {
		u.store.Put(model.KindUser, us)
	}
	for _, sv := range ev.Servers {
		u.store.Put(model.KindServer, sv)
	}
	for _, ch := range ev.Channels {
		u.store.Put(model.KindChannel, ch)
	}
	for _, mb := range ev.Members {
		u.store.Put(model.KindMember, mb)
	}
	u.logger.Info("cache baseline established",
		zap.Int("users", len(ev.Users)),
		zap.Int("servers", len(ev.Servers)),
		zap.Int("channels", len(ev.Channels)),
		zap.Int("members", len(ev.Members)),
	)
}

func (u *Updater) warnMissing(event, id string) {
	u.logger.Warn("dropping update for unknown entity",
		zap.String("event", event),
		zap.String("id", id),
	)
}
