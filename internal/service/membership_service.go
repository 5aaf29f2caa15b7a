package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMembershipLookup indicates Telegram could not tell whether a user is in the channel.
var ErrMembershipLookup = errors.New("service: membership lookup failed")

// MemberStatus is the chat member status reported by Telegram.
type MemberStatus string

const (
	StatusCreator       MemberStatus = "creator"
	StatusAdministrator MemberStatus = "administrator"
	StatusMember        MemberStatus = "member"
	StatusRestricted    MemberStatus = "restricted"
	StatusLeft          MemberStatus = "left"
	StatusKicked        MemberStatus = "kicked"
	StatusUnrecognized  MemberStatus = "unrecognized"
)

// Membership is the two-valued view of MemberStatus used for content
// selection, plus Unknown for failed lookups.
type Membership int

const (
	MembershipUnknown Membership = iota
	MembershipNotSubscribed
	MembershipSubscribed
)

func (m Membership) String() string {
	switch m {
	case MembershipSubscribed:
		return "subscribed"
	case MembershipNotSubscribed:
		return "not_subscribed"
	default:
		return "unknown"
	}
}

var membershipByStatus = map[MemberStatus]Membership{
	StatusCreator:       MembershipSubscribed,
	StatusAdministrator: MembershipSubscribed,
	StatusMember:        MembershipSubscribed,
	StatusRestricted:    MembershipNotSubscribed,
	StatusLeft:          MembershipNotSubscribed,
	StatusKicked:        MembershipNotSubscribed,
	StatusUnrecognized:  MembershipNotSubscribed,
}

// ParseMemberStatus maps a raw Telegram status onto the known set.
// Statuses added by Telegram later come back as StatusUnrecognized.
func ParseMemberStatus(raw string) MemberStatus {
	status := MemberStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := membershipByStatus[status]; ok {
		return status
	}
	return StatusUnrecognized
}

// Classify returns MembershipSubscribed only for creator, administrator and member.
func Classify(status MemberStatus) Membership {
	if membership, ok := membershipByStatus[status]; ok {
		return membership
	}
	return MembershipNotSubscribed
}

// ChatMemberFetcher returns the raw status of userID in channel.
type ChatMemberFetcher interface {
	ChatMemberStatus(ctx context.Context, channel string, userID int64) (string, error)
}

// MembershipService checks users against the configured channel.
type MembershipService struct {
	fetcher ChatMemberFetcher
	channel string
}

func NewMembershipService(fetcher ChatMemberFetcher, channel string) *MembershipService {
	return &MembershipService{fetcher: fetcher, channel: strings.TrimSpace(channel)}
}

// Check returns MembershipUnknown together with an ErrMembershipLookup error
// when Telegram cannot be asked.
func (s *MembershipService) Check(ctx context.Context, userID int64) (Membership, error) {
	raw, err := s.fetcher.ChatMemberStatus(ctx, s.channel, userID)
	if err != nil {
		return MembershipUnknown, fmt.Errorf("%w: user %d in %s: %w", ErrMembershipLookup, userID, s.channel, err)
	}
	return Classify(ParseMemberStatus(raw)), nil
}
