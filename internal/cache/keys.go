package cache

import (
	"fmt"
	"time"
)

const (
	ProfileKeyPrefix    = "profile:%d"
	MembershipKeyPrefix = "membership:%d"
	CommunityKeyPrefix  = "community:%d"
	TallyKeyPrefix      = "tally:%d:%d"
	TallyGenKeyPrefix   = "tally_gen:%d"
	BlacklistKeyPrefix  = "blacklist:%s"
	WSTicketKeyPrefix   = "ws_ticket:%s"
)

const (
	ProfileTTL    = 5 * time.Minute
	MembershipTTL = 5 * time.Minute
	CommunityTTL  = 10 * time.Minute
	TallyTTL      = 30 * time.Second
	TallyGenTTL   = 24 * time.Hour
	WSTicketTTL   = 60 * time.Second
)

func ProfileKey(userID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

func MembershipKey(userID uint) string {
	return fmt.Sprintf(MembershipKeyPrefix, userID)
}

func CommunityKey(communityID uint) string {
	return fmt.Sprintf(CommunityKeyPrefix, communityID)
}

// TallyKey caches the per-quote vote counts of one generation of a quote
// request's tally.
func TallyKey(requestID uint, generation int64) string {
	return fmt.Sprintf(TallyKeyPrefix, requestID, generation)
}

// TallyGenKey holds the current tally generation of a quote request.
func TallyGenKey(requestID uint) string {
	return fmt.Sprintf(TallyGenKeyPrefix, requestID)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

func WSTicketKey(ticket string) string {
	return fmt.Sprintf(WSTicketKeyPrefix, ticket)
}
