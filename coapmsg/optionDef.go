package coapmsg

import "fmt"

// ValueFormat describes how an option's raw bytes should be interpreted.
type ValueFormat uint8

const (
	ValueUnknown ValueFormat = iota
	ValueEmpty // A zero-length sequence of bytes.
	ValueOpaque // An opaque sequence of bytes.
	ValueUint // A non-negative integer, network byte order.
	ValueString // A UTF-8 string.
)

func (f ValueFormat) PrettyPrint(val OptionValue) string {
	switch f {
	case ValueUnknown:
		return fmt.Sprintf("?%#v", val.AsBytes())
	case ValueEmpty:
		return "-Empty-"
	case ValueOpaque:
		return fmt.Sprintf("0x%X", val.AsBytes())
	case ValueUint:
		return fmt.Sprintf("%d", val.AsUInt64())
	case ValueString:
		return fmt.Sprintf("'%s'", val.AsString())
	}

	return fmt.Sprintf("%#v", val.AsBytes())
}

// OptionDef describes the legal shape of an option's value. It is used
// by the validity checker and by Message.String.
type OptionDef struct {
	Number OptionId
	MinLength int
	MaxLength int
	Repeatable bool
	Format ValueFormat
}

// optionDefs holds the per-field value ranges the validity checker
// enforces, plus the repeatable flag codec.go needs to know which
// delta==0 repeats to accept (Uri-Path, Uri-Query, Location-Path, ETag).
var optionDefs = map[OptionId]OptionDef{
	ContentType: {Format: ValueUint, MinLength: 0, MaxLength: 2},
	MaxAge: {Format: ValueUint, MinLength: 0, MaxLength: 4},
	ProxyURI: {Format: ValueString, MinLength: 0, MaxLength: 270},
	ETag: {Format: ValueOpaque, MinLength: 0, MaxLength: 8, Repeatable: true},
	URIHost: {Format: ValueString, MinLength: 0, MaxLength: 270},
	LocationPath: {Format: ValueString, MinLength: 0, MaxLength: 270, Repeatable: true},
	URIPort: {Format: ValueUint, MinLength: 0, MaxLength: 2},
	LocationQuery: {Format: ValueString, MinLength: 0, MaxLength: 270},
	URIPath: {Format: ValueString, MinLength: 0, MaxLength: 270, Repeatable: true},
	Observe: {Format: ValueUint, MinLength: 0, MaxLength: 2},
	Token: {Format: ValueOpaque, MinLength: 0, MaxLength: 8},
	Fencepost: {Format: ValueEmpty, MinLength: 0, MaxLength: 0},
	URIQuery: {Format: ValueString, MinLength: 0, MaxLength: 270, Repeatable: true},
	Block2: {Format: ValueOpaque, MinLength: 0, MaxLength: 3},
	Block1: {Format: ValueOpaque, MinLength: 0, MaxLength: 3},
}

// responseOnlyOptions are rejected on requests by the validity checker.
var responseOnlyOptions = map[OptionId]bool{
	LocationPath: true,
	LocationQuery: true,
	MaxAge: true,
}
