package protocol

// attCID is the L2CAP channel identifier fixed to the ATT protocol.
const attCID = 0x0004

// L2CAPDissector strips a 4-byte L2CAP-over-ATT header and recurses into
// the ATT dissector. It matches when bytes 0..1 are a little-endian length
// and bytes 2..3 are the ATT CID, with length+4 == len(data).
type L2CAPDissector struct {
	ATT ATTDissector
}

func (L2CAPDissector) Name() string { return "L2CAP_ATT" }

func (L2CAPDissector) CanParse(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	length := int(le16(data[0:2]))
	cid := le16(data[2:4])
	return cid == attCID && length+4 == len(data)
}

func (d L2CAPDissector) Parse(data []byte) *Result {
	r := newResult("L2CAP_ATT")
	if !d.CanParse(data) {
		r.Error = "truncated"
		return r
	}
	length := le16(data[0:2])
	r.add(Field{Name: "Length", Value: length, RawBytes: data[0:2], Offset: 0, Length: 2, Interpretation: Integer})
	r.add(Field{Name: "Channel ID", Value: handleString(attCID), RawBytes: data[2:4], Offset: 2, Length: 2, Interpretation: Hex})
	r.set("l2cap_length", int(length))
	r.set("cid", handleString(attCID))

	inner := d.ATT.Parse(data[4:])
	r.set("att", inner)
	for _, f := range inner.Fields {
		f.Offset += 4
		r.Fields = append(r.Fields, f)
	}
	for k, v := range inner.Map {
		r.Map[k] = v
	}
	if inner.Error != "" {
		r.Error = inner.Error
	}
	return r
}
