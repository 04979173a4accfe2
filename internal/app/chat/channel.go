/*
Package chat contains the in-memory channel and message engine.

This file defines the Channel record and the membership operations: join,
invite, leave, owner management, kick and the details query. Checks run in a
fixed order: caller identity, then resource existence, then authorization,
then state conflicts.
*/
package chat

import (
	"sync"

	"flockr/internal/app/user"
	"flockr/internal/pkg/errs"
)

// Channel is one conversation. All fields below mu are protected by it;
// ID, Name, Public and generation never change.
type Channel struct {
	ID     int
	Name   string
	Public bool

	generation uint64

	mu sync.Mutex

	// owners is always a subset of members.
	owners  idSet
	members idSet

	// messages is the log in delivery order, oldest first.
	messages []*Message

	standup standupWindow

	// seq numbers the events committed to this channel, starting at 1.
	seq uint64
}

func newChannel(id int, name string, public bool, creator int, generation uint64) *Channel {
	return &Channel{
		ID:         id,
		Name:       name,
		Public:     public,
		generation: generation,
		owners:     newIDSet(creator),
		members:    newIDSet(creator),
	}
}

// canManage reports whether u may act as an owner: a member who is either in
// the owner-set or a global admin.
func (ch *Channel) canManage(u user.User) bool {
	return ch.members.has(u.ID) && (ch.owners.has(u.ID) || u.IsGlobalAdmin())
}

// Details is the member-only description of a channel.
type Details struct {
	Name         string         `json:"name"`
	IsPublic     bool           `json:"is_public"`
	OwnerMembers []user.Summary `json:"owner_members"`
	AllMembers   []user.Summary `json:"all_members"`
}

// Join adds uid to a public channel. Global admins may also join private ones.
// Joining twice is not an error.
func (s *Store) Join(uid, channelID int) *errs.CustomError {
	u, cerr := s.actor(uid)
	if cerr != nil {
		return cerr
	}

	ch := s.channel(channelID)
	if ch == nil {
		return errs.NewError(errs.ErrChannelNotFound)
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if !ch.Public && !u.IsGlobalAdmin() {
		return errs.NewError(errs.ErrPrivateChannel)
	}

	if ch.members.add(uid) {
		s.logger.Info().Int("channel_id", channelID).Int("u_id", uid).Msg("User joined channel.")
	}
	return nil
}

// Invite adds target to the channel on behalf of a member.
func (s *Store) Invite(uid, channelID, target int) *errs.CustomError {
	if _, cerr := s.actor(uid); cerr != nil {
		return cerr
	}

	ch := s.channel(channelID)
	if ch == nil {
		return errs.NewError(errs.ErrChannelNotFound)
	}
	if _, ok := s.users.Get(target); !ok {
		return errs.NewError(errs.ErrUserNotFound)
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if !ch.members.has(uid) {
		return errs.NewError(errs.ErrNotMember)
	}

	if ch.members.add(target) {
		s.logger.Info().Int("channel_id", channelID).Int("u_id", uid).Int("target", target).Msg("User invited to channel.")
	}
	return nil
}

// Leave removes uid from the member-set and, if present, the owner-set.
func (s *Store) Leave(uid, channelID int) *errs.CustomError {
	if _, cerr := s.actor(uid); cerr != nil {
		return cerr
	}

	ch := s.channel(channelID)
	if ch == nil {
		return errs.NewError(errs.ErrChannelNotFound)
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if !ch.members.remove(uid) {
		return errs.NewError(errs.ErrNotMember)
	}
	ch.owners.remove(uid)

	s.logger.Info().Int("channel_id", channelID).Int("u_id", uid).Msg("User left channel.")
	return nil
}

// lockManaged runs the checks shared by AddOwner, RemoveOwner and Kick and
// returns the channel locked. The caller must unlock ch.mu when err is nil.
func (s *Store) lockManaged(uid, channelID, target int) (*Channel, *errs.CustomError) {
	u, cerr := s.actor(uid)
	if cerr != nil {
		return nil, cerr
	}

	ch := s.channel(channelID)
	if ch == nil {
		return nil, errs.NewError(errs.ErrChannelNotFound)
	}
	if _, ok := s.users.Get(target); !ok {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}

	ch.mu.Lock()

	if !ch.owners.has(uid) && !u.IsGlobalAdmin() {
		ch.mu.Unlock()
		return nil, errs.NewError(errs.ErrNotOwner)
	}
	if !ch.members.has(uid) {
		ch.mu.Unlock()
		return nil, errs.NewError(errs.ErrNotMember)
	}
	if !ch.members.has(target) {
		ch.mu.Unlock()
		return nil, errs.NewError(errs.ErrTargetNotMember)
	}

	return ch, nil
}

// AddOwner promotes a member to owner.
func (s *Store) AddOwner(uid, channelID, target int) *errs.CustomError {
	ch, cerr := s.lockManaged(uid, channelID, target)
	if cerr != nil {
		return cerr
	}
	defer ch.mu.Unlock()

	if !ch.owners.add(target) {
		return errs.NewError(errs.ErrAlreadyOwner)
	}

	s.logger.Info().Int("channel_id", channelID).Int("u_id", uid).Int("target", target).Msg("Owner added.")
	return nil
}

// RemoveOwner demotes an owner to plain member.
func (s *Store) RemoveOwner(uid, channelID, target int) *errs.CustomError {
	ch, cerr := s.lockManaged(uid, channelID, target)
	if cerr != nil {
		return cerr
	}
	defer ch.mu.Unlock()

	if !ch.owners.remove(target) {
		return errs.NewError(errs.ErrNotAnOwner)
	}

	s.logger.Info().Int("channel_id", channelID).Int("u_id", uid).Int("target", target).Msg("Owner removed.")
	return nil
}

// Kick removes target from the channel entirely.
func (s *Store) Kick(uid, channelID, target int) *errs.CustomError {
	ch, cerr := s.lockManaged(uid, channelID, target)
	if cerr != nil {
		return cerr
	}
	defer ch.mu.Unlock()

	ch.members.remove(target)
	ch.owners.remove(target)

	s.logger.Info().Int("channel_id", channelID).Int("u_id", uid).Int("target", target).Msg("User kicked from channel.")
	return nil
}

// Details returns the channel name and its owners and members in join order.
func (s *Store) Details(uid, channelID int) (Details, *errs.CustomError) {
	if _, cerr := s.actor(uid); cerr != nil {
		return Details{}, cerr
	}

	ch := s.channel(channelID)
	if ch == nil {
		return Details{}, errs.NewError(errs.ErrChannelNotFound)
	}

	ch.mu.Lock()
	if !ch.members.has(uid) {
		ch.mu.Unlock()
		return Details{}, errs.NewError(errs.ErrNotMember)
	}
	owners := ch.owners.list()
	members := ch.members.list()
	ch.mu.Unlock()

	return Details{
		Name:         ch.Name,
		IsPublic:     ch.Public,
		OwnerMembers: s.summaries(owners),
		AllMembers:   s.summaries(members),
	}, nil
}

func (s *Store) summaries(ids []int) []user.Summary {
	out := make([]user.Summary, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users.Get(id); ok {
			out = append(out, u.Summary())
		}
	}
	return out
}
