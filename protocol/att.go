package protocol

// ATT opcodes this dissector recognizes. Numbering follows the Bluetooth
// Core Spec Vol 3, Part F, matching the table the teacher package keeps in
// const.go for building PDUs rather than parsing them.
const (
	attOpError        = 0x01
	attOpMTUReq       = 0x02
	attOpMTUResp      = 0x03
	attOpFindInfoReq  = 0x04
	attOpFindInfoResp = 0x05
	attOpReadByTypeReq  = 0x08
	attOpReadByTypeResp = 0x09
	attOpReadReq      = 0x0a
	attOpReadResp     = 0x0b
	attOpWriteReq     = 0x12
	attOpWriteResp    = 0x13
	attOpWriteCmd     = 0x52
	attOpHandleNotify = 0x1b
	attOpHandleInd    = 0x1d
)

var attOpcodeNames = map[byte]string{
	attOpError:          "Error Response",
	attOpMTUReq:         "Exchange MTU Request",
	attOpMTUResp:        "Exchange MTU Response",
	attOpFindInfoReq:    "Find Information Request",
	attOpFindInfoResp:   "Find Information Response",
	attOpReadByTypeReq:  "Read By Type Request",
	attOpReadByTypeResp: "Read By Type Response",
	attOpReadReq:        "Read Request",
	attOpReadResp:       "Read Response",
	attOpWriteReq:       "Write Request",
	attOpWriteResp:      "Write Response",
	attOpWriteCmd:       "Write Command",
	attOpHandleNotify:   "Handle Value Notification",
	attOpHandleInd:      "Handle Value Indication",
}

// attMinLength is the shortest a PDU for that opcode can legally be.
// A packet shorter than this is truncated.
var attMinLength = map[byte]int{
	attOpError:          5,
	attOpMTUReq:         3,
	attOpMTUResp:        3,
	attOpFindInfoReq:    5,
	attOpFindInfoResp:   2,
	attOpReadByTypeReq:  7,
	attOpReadByTypeResp: 2,
	attOpReadReq:        3,
	attOpReadResp:       1,
	attOpWriteReq:       3,
	attOpWriteResp:      1,
	attOpWriteCmd:       3,
	attOpHandleNotify:   3,
	attOpHandleInd:      3,
}

var attErrorCodeNames = map[byte]string{
	0x01: "Invalid Handle",
	0x02: "Read Not Permitted",
	0x03: "Write Not Permitted",
	0x05: "Insufficient Authentication",
	0x06: "Request Not Supported",
	0x07: "Invalid Offset",
	0x08: "Insufficient Authorization",
	0x0a: "Attribute Not Found",
	0x0d: "Invalid Attribute Value Length",
}

// IsKnownOpcode reports whether b is a recognized ATT opcode, and if so
// the minimum PDU length that opcode requires.
func IsKnownOpcode(b byte) (min int, ok bool) {
	min, ok = attMinLength[b]
	return
}

// ATTDissector parses ATT/GATT request, response, and notification PDUs.
type ATTDissector struct{}

func (ATTDissector) Name() string { return "ATT" }

func (ATTDissector) CanParse(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	_, ok := attOpcodeNames[data[0]]
	return ok
}

// Parse dissects an ATT PDU. Input shorter than the opcode's minimum
// length yields a partial Result: fields already decoded are kept and
// Error is set to "truncated".
func (d ATTDissector) Parse(data []byte) *Result {
	r := newResult("ATT")
	if len(data) == 0 {
		r.Error = "empty packet"
		return r
	}

	op := data[0]
	name, known := attOpcodeNames[op]
	if !known {
		r.Error = "unknown opcode"
		r.set("opcode", op)
		return r
	}
	r.set("opcode", op)
	r.set("opcode_name", name)
	r.add(Field{Name: "Opcode", Value: name, RawBytes: data[0:1], Offset: 0, Length: 1, Interpretation: Enum})

	minLen := attMinLength[op]
	if len(data) < minLen {
		r.Error = "truncated"
	}

	switch op {
	case attOpError:
		d.parseErrorResponse(r, data)
	case attOpMTUReq:
		d.parseMTU(r, data, "client_mtu")
	case attOpMTUResp:
		d.parseMTU(r, data, "server_mtu")
	case attOpFindInfoReq:
		d.parseHandleRange(r, data)
	case attOpReadReq:
		d.parseHandleOnly(r, data)
	case attOpWriteReq, attOpWriteCmd:
		d.parseHandleAndValue(r, data)
	case attOpHandleNotify, attOpHandleInd:
		d.parseHandleAndValue(r, data)
	case attOpReadResp, attOpWriteResp, attOpFindInfoResp, attOpReadByTypeResp:
		d.parseValueOnly(r, data)
	case attOpReadByTypeReq:
		d.parseReadByType(r, data)
	}
	return r
}

func (ATTDissector) parseErrorResponse(r *Result, data []byte) {
	if len(data) < 2 {
		return
	}
	reqOp := data[1]
	r.add(Field{Name: "Request Opcode", Value: reqOp, RawBytes: data[1:2], Offset: 1, Length: 1, Interpretation: Hex})
	r.set("request_opcode", reqOp)
	if name, ok := attOpcodeNames[reqOp]; ok {
		r.set("request_opcode_name", name)
	}
	if len(data) < 4 {
		return
	}
	handle := le16(data[2:4])
	r.add(Field{Name: "Handle", Value: handleString(handle), RawBytes: data[2:4], Offset: 2, Length: 2, Interpretation: Hex})
	r.set("handle", handleString(handle))
	if len(data) < 5 {
		return
	}
	ecode := data[4]
	r.set("error_code", ecode)
	ename, known := attErrorCodeNames[ecode]
	if !known {
		ename = "Unknown Error"
	}
	r.add(Field{Name: "Error Code", Value: ename, RawBytes: data[4:5], Offset: 4, Length: 1, Interpretation: Enum})
	r.set("error_name", ename)
}

func (ATTDissector) parseMTU(r *Result, data []byte, key string) {
	if len(data) < 3 {
		return
	}
	mtu := le16(data[1:3])
	r.add(Field{Name: "MTU", Value: mtu, RawBytes: data[1:3], Offset: 1, Length: 2, Interpretation: Integer})
	r.set(key, int(mtu))
}

func (ATTDissector) parseHandleRange(r *Result, data []byte) {
	if len(data) < 3 {
		return
	}
	start := le16(data[1:3])
	r.add(Field{Name: "Start Handle", Value: handleString(start), RawBytes: data[1:3], Offset: 1, Length: 2, Interpretation: Hex})
	r.set("start_handle", handleString(start))
	if len(data) < 5 {
		return
	}
	end := le16(data[3:5])
	r.add(Field{Name: "End Handle", Value: handleString(end), RawBytes: data[3:5], Offset: 3, Length: 2, Interpretation: Hex})
	r.set("end_handle", handleString(end))
}

func (ATTDissector) parseHandleOnly(r *Result, data []byte) {
	if len(data) < 3 {
		return
	}
	handle := le16(data[1:3])
	r.add(Field{Name: "Handle", Value: handleString(handle), RawBytes: data[1:3], Offset: 1, Length: 2, Interpretation: Hex})
	r.set("handle", handleString(handle))
}

func (ATTDissector) parseHandleAndValue(r *Result, data []byte) {
	if len(data) < 3 {
		return
	}
	handle := le16(data[1:3])
	r.add(Field{Name: "Handle", Value: handleString(handle), RawBytes: data[1:3], Offset: 1, Length: 2, Interpretation: Hex})
	r.set("handle", handleString(handle))

	value := data[3:]
	r.add(Field{Name: "Value", Value: hexString(value), RawBytes: value, Offset: 3, Length: len(value), Interpretation: Hex})
	r.set("value", hexString(value))
	r.set("value_length", len(value))
	r.set("value_ascii", safeASCII(value))
}

func (ATTDissector) parseValueOnly(r *Result, data []byte) {
	value := data[1:]
	r.add(Field{Name: "Value", Value: hexString(value), RawBytes: value, Offset: 1, Length: len(value), Interpretation: Hex})
	r.set("value", hexString(value))
	r.set("value_length", len(value))
	r.set("value_ascii", safeASCII(value))
}

func (ATTDissector) parseReadByType(r *Result, data []byte) {
	if len(data) < 5 {
		return
	}
	start := le16(data[1:3])
	end := le16(data[3:5])
	r.add(Field{Name: "Start Handle", Value: handleString(start), RawBytes: data[1:3], Offset: 1, Length: 2, Interpretation: Hex})
	r.add(Field{Name: "End Handle", Value: handleString(end), RawBytes: data[3:5], Offset: 3, Length: 2, Interpretation: Hex})
	r.set("start_handle", handleString(start))
	r.set("end_handle", handleString(end))
	if len(data) > 5 {
		uuidBytes := data[5:]
		r.add(Field{Name: "Attribute Type", Value: hexString(uuidBytes), RawBytes: uuidBytes, Offset: 5, Length: len(uuidBytes), Interpretation: UUID})
		r.set("attribute_type", hexString(uuidBytes))
	}
}
