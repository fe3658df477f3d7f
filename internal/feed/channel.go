package feed

import (
	"regexp"
	"strings"
)

// ChannelKind is the closed classification of a booking's channel.
type ChannelKind int

const (
	DirectChannel ChannelKind = iota
	MetaSearchChannel
	OtaChannel
)

func (k ChannelKind) String() string {
	switch k {
	case DirectChannel:
		return "direct"
	case MetaSearchChannel:
		return "metasearch"
	case OtaChannel:
		return "ota"
	}
	return "unknown"
}

var customerChannel = regexp.MustCompile(`customer.*[0-9]$`)

// ClassifyChannel decides how a booking's conversations are routed.
// Meta-search bookings without a channel-side id are handled like direct ones.
func ClassifyChannel(channelRaw, externalBookingID string) ChannelKind {
	raw := strings.TrimSpace(channelRaw)
	if raw == "" || strings.EqualFold(raw, DirectChannelName) {
		return DirectChannel
	}
	source, _, _ := strings.Cut(raw, "_")
	metaSource := customerChannel.MatchString(source) ||
		strings.EqualFold(source, "googlehotel") ||
		strings.EqualFold(source, "trivago")
	if metaSource && externalBookingID == "" {
		return MetaSearchChannel
	}
	return OtaChannel
}

// ChatChannel is the channel a booking's chat is opened on.
func ChatChannel(kind ChannelKind, channelRaw string) string {
	if kind == OtaChannel {
		return channelRaw
	}
	return DirectChannelName
}
