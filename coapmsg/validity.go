package coapmsg

// Validate is the message validity checker: a pure function over a
// Message that reports either nil (OK) or the specific rejection reason.
// It does not touch the wire; Encode/Decode call their own narrower
// structural checks independently.
func Validate(msg *Message) error {
	if msg.Type > Reset {
		return ErrInvalidHeader
	}

	if !definedCodes[msg.Code] {
		return ErrBadCode
	}

	if len(msg.Token) > 8 {
		return ErrInvalidTokenLen
	}

	if msg.Type == Reset && (len(msg.Options()) > 0 || len(msg.Payload) > 0) {
		return ErrInvalidHeader
	}

	// An Acknowledgement otherwise carries no options or payload, except
	// a Block1/Block2 option requesting the next block of an in-progress
	// blockwise send.
	if msg.Type == Acknowledgement {
		if len(msg.Payload) > 0 {
			return ErrInvalidHeader
		}
		for id := range msg.Options() {
			if id != Block1 && id != Block2 {
				return ErrInvalidHeader
			}
		}
	}

	for id, opt := range msg.Options() {
		def, known := optionDefs[id]
		if !known {
			continue
		}
		for _, v := range opt.values {
			if v.Len() < def.MinLength || v.Len() > def.MaxLength {
				return ErrBadOptionLength
			}
		}
	}

	if msg.Code.IsRequest() {
		for id := range msg.Options() {
			if responseOnlyOptions[id] {
				return ErrBadCode
			}
		}
	}

	return nil
}
