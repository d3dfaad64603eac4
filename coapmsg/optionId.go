package coapmsg

// OptionId identifies an option in a message by its wire number.
//
// The numbering follows the pre-RFC7252 draft this engine targets: there is
// no TKL nibble in the fixed header (see Encode), so Token is
// carried as option 11 rather than as a header field, and Fencepost (14) is
// a placeholder the codec inserts and strips rather than an option an
// application ever observes.
type OptionId uint16

// Option numbers recognized by the codec.
const (
	ContentType OptionId = 1
	MaxAge OptionId = 2
	ProxyURI OptionId = 3
	ETag OptionId = 4
	URIHost OptionId = 5
	LocationPath OptionId = 6
	URIPort OptionId = 7
	LocationQuery OptionId = 8
	URIPath OptionId = 9
	Observe OptionId = 10
	Token OptionId = 11
	Fencepost OptionId = 14
	URIQuery OptionId = 15
	Block2 OptionId = 17
	Block1 OptionId = 19
)

// canonicalOrder lists every option number the codec may emit, in
// ascending wire order. Token sits at its numeric slot (11) even though
// its value comes from Message.Token rather than the Options set;
// Fencepost is synthesized by the encoder at runtime and is not a member
// of this list.
var canonicalOrder = []OptionId{
	ContentType,
	MaxAge,
	ProxyURI,
	ETag,
	URIHost,
	LocationPath,
	URIPort,
	LocationQuery,
	URIPath,
	Observe,
	Token,
	URIQuery,
	Block2,
	Block1,
}

var optionNames = map[OptionId]string{
	ContentType: "Content-Type",
	MaxAge: "Max-Age",
	ProxyURI: "Proxy-Uri",
	ETag: "ETag",
	URIHost: "Uri-Host",
	LocationPath: "Location-Path",
	URIPort: "Uri-Port",
	LocationQuery: "Location-Query",
	URIPath: "Uri-Path",
	Observe: "Observe",
	Token: "Token",
	Fencepost: "Fencepost",
	URIQuery: "Uri-Query",
	Block2: "Block2",
	Block1: "Block1",
}

func (o OptionId) String() string {
	if name, ok := optionNames[o]; ok {
		return name
	}
	return "Unknown"
}
