package coapmsg

// https://github.com/dustin/go-coap, adapted for the pre-RFC7252 draft-09
// wire format (no TKL header nibble, Token and Fencepost carried as
// options, 270-byte option value ceiling).
import (
	"fmt"
	"strings"
)

// COAPType represents the message type.
type COAPType uint8

const (
	// Confirmable messages require acknowledgements.
	Confirmable COAPType = 0
	// NonConfirmable messages do not require acknowledgements.
	NonConfirmable COAPType = 1
	// Acknowledgement is a message indicating a response to confirmable message.
	Acknowledgement COAPType = 2
	// Reset indicates a permanent negative acknowledgement.
	Reset COAPType = 3
)

var typeNames = [256]string{
	Confirmable: "Confirmable",
	NonConfirmable: "NonConfirmable",
	Acknowledgement: "Acknowledgement",
	Reset: "Reset",
}

func init() {
	for i := range typeNames {
		if typeNames[i] == "" {
			typeNames[i] = fmt.Sprintf("Unknown (0x%x)", i)
		}
	}
}

func (t COAPType) String() string {
	return typeNames[t]
}

// COAPCode is the type used for both request and response codes.
type COAPCode uint8

// Request codes (<32).
const (
	GET COAPCode = 1
	POST COAPCode = 2
	PUT COAPCode = 3
	DELETE COAPCode = 4
)

// Response codes (>=64).
const (
	Empty COAPCode = 0
	Created COAPCode = 65
	Deleted COAPCode = 66
	Valid COAPCode = 67
	Changed COAPCode = 68
	Content COAPCode = 69
	BadRequest COAPCode = 128
	Unauthorized COAPCode = 129
	BadOption COAPCode = 130
	Forbidden COAPCode = 131
	NotFound COAPCode = 132
	MethodNotAllowed COAPCode = 133
	NotAcceptable COAPCode = 134
	PreconditionFailed COAPCode = 140
	RequestEntityTooLarge COAPCode = 141
	UnsupportedMediaType COAPCode = 143
	InternalServerError COAPCode = 160
	NotImplemented COAPCode = 161
	BadGateway COAPCode = 162
	ServiceUnavailable COAPCode = 163
	GatewayTimeout COAPCode = 164
	ProxyingNotSupported COAPCode = 165
)

var codeNames = [256]string{
	GET: "GET", POST: "POST", PUT: "PUT", DELETE: "DELETE",
	Empty: "Empty", Created: "Created", Deleted: "Deleted", Valid: "Valid",
	Changed: "Changed", Content: "Content", BadRequest: "BadRequest",
	Unauthorized: "Unauthorized", BadOption: "BadOption", Forbidden: "Forbidden",
	NotFound: "NotFound", MethodNotAllowed: "MethodNotAllowed", NotAcceptable: "NotAcceptable",
	PreconditionFailed: "PreconditionFailed", RequestEntityTooLarge: "RequestEntityTooLarge",
	UnsupportedMediaType: "UnsupportedMediaType", InternalServerError: "InternalServerError",
	NotImplemented: "NotImplemented", BadGateway: "BadGateway",
	ServiceUnavailable: "ServiceUnavailable", GatewayTimeout: "GatewayTimeout",
	ProxyingNotSupported: "ProxyingNotSupported",
}

func init() {
	for i := range codeNames {
		if codeNames[i] == "" {
			codeNames[i] = fmt.Sprintf("Unknown (0x%x)", i)
		}
	}
}

func (c COAPCode) String() string {
	return codeNames[c]
}

// IsRequest reports whether c is a request code (<32).
func (c COAPCode) IsRequest() bool {
	return uint8(c) < 32
}

// IsResponse reports whether c is a response code (>=64).
func (c COAPCode) IsResponse() bool {
	return uint8(c) >= 64
}

var definedCodes = map[COAPCode]bool{
	Empty: true, GET: true, POST: true, PUT: true, DELETE: true,
	Created: true, Deleted: true, Valid: true, Changed: true, Content: true,
	BadRequest: true, Unauthorized: true, BadOption: true, Forbidden: true,
	NotFound: true, MethodNotAllowed: true, NotAcceptable: true,
	PreconditionFailed: true, RequestEntityTooLarge: true, UnsupportedMediaType: true,
	InternalServerError: true, NotImplemented: true, BadGateway: true,
	ServiceUnavailable: true, GatewayTimeout: true, ProxyingNotSupported: true,
}

// Message is a logical CoAP message.
type Message struct {
	Type COAPType
	Code COAPCode
	MessageID uint16

	Token, Payload []byte

	options CoapOptions
}

func NewMessage() Message {
	return Message{options: CoapOptions{}}
}

func NewAck(messageId uint16) Message {
	return Message{Type: Acknowledgement, Code: Empty, MessageID: messageId}
}

func NewRst(messageId uint16) Message {
	return Message{Type: Reset, Code: Empty, MessageID: messageId}
}

func (m *Message) String() string {
	return fmt.Sprintf(`coapmsg.Message{Code:"%s", Type:"%s", MsgId:%d, Token:%v, Options:"%s", Payload:"%s"}`,
		m.Code, m.Type, m.MessageID, m.Token, m.Options(), m.Payload)
}

// Options returns the message's option set, lazily initializing it.
func (m *Message) Options() CoapOptions {
	if m.options == nil {
		m.options = CoapOptions{}
	}
	return m.options
}

func (m *Message) SetOptions(o CoapOptions) {
	m.options = o
}

// IsConfirmable returns true if this message is confirmable.
func (m *Message) IsConfirmable() bool {
	return m.Type == Confirmable
}

// IsNonConfirmable returns true if this message is non-confirmable.
func (m *Message) IsNonConfirmable() bool {
	return m.Type == NonConfirmable
}

// Path gets the Uri-Path segments set on this message, if any.
func (m *Message) Path() []string {
	return m.repeatableStrings(URIPath)
}

// PathString gets the Uri-Path as a / separated string.
func (m *Message) PathString() string {
	return strings.Join(m.Path(), "/")
}

// SetPathString sets Uri-Path by splitting s on "/", per SplitURIPath.
func (m *Message) SetPathString(s string) {
	m.SetPath(SplitURIPath(s))
}

// SetPath replaces the message's Uri-Path options with s.
func (m *Message) SetPath(s []string) {
	m.Options().Del(URIPath)
	for _, part := range s {
		if part == "" {
			continue
		}
		m.Options().Add(URIPath, part)
	}
}

// Query gets the Uri-Query segments set on this message, if any.
func (m *Message) Query() []string {
	return m.repeatableStrings(URIQuery)
}

// SetQueryString sets Uri-Query by splitting s on "&", per SplitURIQuery.
func (m *Message) SetQueryString(s string) {
	m.Options().Del(URIQuery)
	for _, part := range SplitURIQuery(s) {
		if part == "" {
			continue
		}
		m.Options().Add(URIQuery, part)
	}
}

func (m *Message) repeatableStrings(id OptionId) []string {
	opt, ok := m.Options()[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(opt.values))
	for _, v := range opt.values {
		out = append(out, v.AsString())
	}
	return out
}
