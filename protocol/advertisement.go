package protocol

// Advertisement data type tags, a subset of the Bluetooth-assigned-numbers
// EIR/AD type table. The teacher package keeps the full table (for
// building advertising packets) in advertisement.go; only the tags this
// dissector is asked to recognize are kept here.
const (
	adTypeFlags            = 0x01
	adTypeCompleteUUID16   = 0x03
	adTypeCompleteName     = 0x09
	adTypeManufacturerData = 0xff
)

var adTypeNames = map[byte]string{
	adTypeFlags:            "Flags",
	adTypeCompleteUUID16:   "Complete List of 16-bit Service UUIDs",
	adTypeCompleteName:     "Complete Local Name",
	adTypeManufacturerData: "Manufacturer Specific Data",
}

// AdvertisementDissector parses the {length, type, value} TLV chain found
// in BLE advertising and scan response PDUs. Every advertisement packet
// is accepted: CanParse only gates on the caller's RawPacket classification
// (see detectProtocol in package inspector), not on TLV shape.
type AdvertisementDissector struct{}

func (AdvertisementDissector) Name() string { return "ADV" }

func (AdvertisementDissector) CanParse(data []byte) bool { return true }

func (AdvertisementDissector) Parse(data []byte) *Result {
	r := newResult("ADV")
	offset := 0
	var services []string
	for offset < len(data) {
		length := int(data[offset])
		if length == 0 {
			offset++
			continue
		}
		if offset+1+length > len(data) {
			r.Error = "truncated"
			break
		}
		adType := data[offset+1]
		value := data[offset+2 : offset+1+length]

		name, known := adTypeNames[adType]
		if !known {
			name = "Unknown"
		}

		switch adType {
		case adTypeFlags:
			if len(value) > 0 {
				r.set("flags", value[0])
				r.add(Field{Name: "Flags", Value: value[0], RawBytes: value, Offset: offset + 2, Length: len(value), Interpretation: Hex})
			}
		case adTypeCompleteUUID16:
			for i := 0; i+2 <= len(value); i += 2 {
				services = append(services, handleString(le16(value[i:i+2])))
			}
			r.set("services", services)
		case adTypeCompleteName:
			localName := string(value)
			r.set("local_name", localName)
			r.add(Field{Name: "Complete Local Name", Value: localName, RawBytes: value, Offset: offset + 2, Length: len(value), Interpretation: Ascii})
		case adTypeManufacturerData:
			r.set("manufacturer_data", hexString(value))
			r.add(Field{Name: "Manufacturer Specific Data", Value: hexString(value), RawBytes: value, Offset: offset + 2, Length: len(value), Interpretation: Hex})
		default:
			r.add(Field{Name: name, Value: hexString(value), RawBytes: value, Offset: offset + 2, Length: len(value), Interpretation: Hex})
		}

		offset += 1 + length
	}
	return r
}
