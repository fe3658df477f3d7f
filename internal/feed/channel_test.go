package feed

import "testing"

func TestClassifyChannel(t *testing.T) {
	tests := []struct {
		channel  string
		external string
		want     ChannelKind
	}{
		{"", "", DirectChannel},
		{"vikbooking", "", DirectChannel},
		{"VikBooking", "123", DirectChannel},
		{"customer1", "", MetaSearchChannel},
		{"customer_12_Google", "", OtaChannel},
		{"mycustomer7_Site", "", MetaSearchChannel},
		{"mycustomer7_Site", "X1", OtaChannel},
		{"customer5_Site", "OTA-99", OtaChannel},
		{"googlehotel_Google Hotel", "", MetaSearchChannel},
		{"GoogleHotel", "", MetaSearchChannel},
		{"googlehotel_Google Hotel", "G-55", OtaChannel},
		{"trivago", "", MetaSearchChannel},
		{"airbnbapi_Airbnb", "HM1", OtaChannel},
		{"booking.com", "", OtaChannel},
	}
	for _, tt := range tests {
		t.Run(tt.channel+"/"+tt.external, func(t *testing.T) {
			if got := ClassifyChannel(tt.channel, tt.external); got != tt.want {
				t.Errorf("ClassifyChannel(%q, %q) = %s, want %s", tt.channel, tt.external, got, tt.want)
			}
		})
	}
}

func TestChatChannel(t *testing.T) {
	if got := ChatChannel(OtaChannel, "airbnbapi"); got != "airbnbapi" {
		t.Errorf("OTA = %q", got)
	}
	if got := ChatChannel(MetaSearchChannel, "trivago"); got != DirectChannelName {
		t.Errorf("meta-search = %q", got)
	}
	if got := ChatChannel(ClassifyChannel("customer5_Site", "OTA-99"), "customer5_Site"); got != "customer5_Site" {
		t.Errorf("customer source with an OTA id = %q", got)
	}
	if got := ChatChannel(DirectChannel, ""); got != DirectChannelName {
		t.Errorf("direct = %q", got)
	}
}
