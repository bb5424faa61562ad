package marketplace

import (
	"fmt"
	"strings"
)

// Channel is the marketplace an order or payout originates from
type Channel string

const (
	ChannelAmazon    Channel = "AMAZON"
	ChannelEbay      Channel = "EBAY"
	ChannelWillhaben Channel = "WILLHABEN"
	ChannelOther     Channel = "OTHER"
)

// AllChannels returns every supported channel
func AllChannels() []Channel {
	return []Channel{ChannelAmazon, ChannelEbay, ChannelWillhaben, ChannelOther}
}

// IsValid checks if the channel is a known value
func (c Channel) IsValid() bool {
	switch c {
	case ChannelAmazon, ChannelEbay, ChannelWillhaben, ChannelOther:
		return true
	}
	return false
}

// String returns the channel name
func (c Channel) String() string {
	return string(c)
}

// UnknownChannelPolicy decides what happens to a CSV value outside the channel enum
type UnknownChannelPolicy string

const (
	// UnknownChannelReject turns an unknown channel into a row error
	UnknownChannelReject UnknownChannelPolicy = "reject"
	// UnknownChannelAsOther maps an unknown channel to OTHER
	UnknownChannelAsOther UnknownChannelPolicy = "other"
)

// IsValid checks if the policy is a known value
func (p UnknownChannelPolicy) IsValid() bool {
	return p == UnknownChannelReject || p == UnknownChannelAsOther
}

// ParseChannel parses a channel name case-insensitively.
// An empty value is always an error; unknown values follow policy.
func ParseChannel(raw string, policy UnknownChannelPolicy) (Channel, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return "", fmt.Errorf("channel is required")
	}
	ch := Channel(value)
	if ch.IsValid() {
		return ch, nil
	}
	if policy == UnknownChannelAsOther {
		return ChannelOther, nil
	}
	return "", fmt.Errorf("unknown channel '%s' (expected AMAZON, EBAY, WILLHABEN or OTHER)", strings.TrimSpace(raw))
}
