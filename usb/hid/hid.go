// Package hid builds USB HID report descriptors from typed items.
//
// Descriptors are assembled as a tree of Item values under a Report; Bytes
// walks the tree and emits the standard short-item encoding (USB HID 1.11
// §6.2.2). Drivers that need to go the other way - reading a raw descriptor
// off the wire - use the sibling parser in hidrd, which understands the same
// item tags.
package hid

import "encoding/binary"

// ItemType is the bType field of a short item prefix byte.
type ItemType uint8

const (
	ItemTypeMain ItemType = iota
	ItemTypeGlobal
	ItemTypeLocal
)

// Data holds the raw payload bytes of an item (0, 1, 2, or 4 bytes).
type Data []byte

// Item is anything that can encode itself as one or more HID short items.
type Item interface {
	Encode() []byte
}

// AnyItem is the escape hatch for tags this package has no dedicated type
// for; Type/Tag/Data mirror the raw item prefix fields directly.
type AnyItem struct {
	Type ItemType
	Tag  uint8
	Data Data
}

func (i AnyItem) Encode() []byte {
	return encodeItem(i.Type, i.Tag, i.Data)
}

func encodeItem(t ItemType, tag uint8, data []byte) []byte {
	size := len(data)
	var sizeBits uint8
	switch size {
	case 0:
		sizeBits = 0
	case 1:
		sizeBits = 1
	case 2:
		sizeBits = 2
	case 4:
		sizeBits = 3
	default:
		// Non-standard length; HID descriptors never need more than 4 bytes
		// of immediate data, so truncate defensively rather than corrupt
		// the following item's prefix byte.
		data = data[:4]
		size = 4
		sizeBits = 3
	}
	prefix := sizeBits | (uint8(t) << 2) | (tag << 4)
	out := make([]byte, 0, 1+size)
	out = append(out, prefix)
	out = append(out, data...)
	return out
}

func encodeUint(t ItemType, tag uint8, v uint32, signed bool) []byte {
	switch {
	case v <= 0xFF && !needsSignExtend(v, 1, signed):
		return encodeItem(t, tag, []byte{byte(v)})
	case v <= 0xFFFF && !needsSignExtend(v, 2, signed):
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(v))
		return encodeItem(t, tag, b)
	default:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		return encodeItem(t, tag, b)
	}
}

// needsSignExtend reports whether a value that looks like it fits in
// nbytes would be misread as negative when signed=true (top bit set).
func needsSignExtend(v uint32, nbytes int, signed bool) bool {
	if !signed {
		return false
	}
	topBit := uint32(1) << (nbytes*8 - 1)
	return v&topBit != 0
}

func encodeInt(t ItemType, tag uint8, v int32) []byte {
	return encodeUint(t, tag, uint32(v), true)
}

// Global items.

const (
	tagUsagePage        = 0x0
	tagLogicalMinimum   = 0x1
	tagLogicalMaximum   = 0x2
	tagPhysicalMinimum  = 0x3
	tagPhysicalMaximum  = 0x4
	tagUnitExponent     = 0x5
	tagUnit             = 0x6
	tagReportSize       = 0x7
	tagReportID         = 0x8
	tagReportCount      = 0x9
	tagPush             = 0xA
	tagPop              = 0xB
)

const (
	tagUsage          = 0x0
	tagUsageMinimum   = 0x1
	tagUsageMaximum   = 0x2
)

const (
	tagInput         = 0x8
	tagOutput        = 0x9
	tagCollection    = 0xA
	tagFeature       = 0xB
	tagEndCollection = 0xC
)

// HID usage pages referenced by the device modes in this module.
const (
	UsagePageGenericDesktop = 0x01
	UsagePageKeyboard       = 0x07
	UsagePageButton         = 0x09
	UsagePageConsumer       = 0x0C
)

// HID usages on the Generic Desktop page.
const (
	UsageGamePad = 0x05
	UsageX       = 0x30
	UsageY       = 0x31
	UsageZ       = 0x32
	UsageRz      = 0x35
	UsageWheel   = 0x38
	UsageHatSwitch = 0x39
)

// Consumer-page usages.
const (
	UsageACPan = 0x0238
)

// Main-item data/type/relative flag bits (Input/Output/Feature).
const (
	MainConst     = 1 << 0
	MainVar       = 1 << 1
	MainRel       = 1 << 2
	MainWrap      = 1 << 3
	MainNonLinear = 1 << 4
	MainNoPref    = 1 << 5
	MainNullState = 1 << 6
	MainData      = 0 // data (vs. constant) is the absence of MainConst
	MainAbs       = 0 // absolute (vs. relative) is the absence of MainRel
)

type UsagePage struct{ Page uint16 }

func (u UsagePage) Encode() []byte { return encodeUint(ItemTypeGlobal, tagUsagePage, uint32(u.Page), false) }

type LogicalMinimum struct{ Min int32 }

func (l LogicalMinimum) Encode() []byte { return encodeInt(ItemTypeGlobal, tagLogicalMinimum, l.Min) }

type LogicalMaximum struct{ Max int32 }

func (l LogicalMaximum) Encode() []byte { return encodeInt(ItemTypeGlobal, tagLogicalMaximum, l.Max) }

type PhysicalMinimum struct{ Min int32 }

func (p PhysicalMinimum) Encode() []byte { return encodeInt(ItemTypeGlobal, tagPhysicalMinimum, p.Min) }

type PhysicalMaximum struct{ Max int32 }

func (p PhysicalMaximum) Encode() []byte { return encodeInt(ItemTypeGlobal, tagPhysicalMaximum, p.Max) }

type ReportSize struct{ Bits uint32 }

func (r ReportSize) Encode() []byte { return encodeUint(ItemTypeGlobal, tagReportSize, r.Bits, false) }

type ReportCount struct{ Count uint32 }

func (r ReportCount) Encode() []byte { return encodeUint(ItemTypeGlobal, tagReportCount, r.Count, false) }

type ReportID struct{ ID uint8 }

func (r ReportID) Encode() []byte { return encodeItem(ItemTypeGlobal, tagReportID, []byte{r.ID}) }

type Usage struct{ Usage uint32 }

func (u Usage) Encode() []byte { return encodeUint(ItemTypeLocal, tagUsage, u.Usage, false) }

type UsageMinimum struct{ Min uint32 }

func (u UsageMinimum) Encode() []byte { return encodeUint(ItemTypeLocal, tagUsageMinimum, u.Min, false) }

type UsageMaximum struct{ Max uint32 }

func (u UsageMaximum) Encode() []byte { return encodeUint(ItemTypeLocal, tagUsageMaximum, u.Max, false) }

type Input struct{ Flags uint32 }

func (i Input) Encode() []byte { return encodeUint(ItemTypeMain, tagInput, i.Flags, false) }

type Output struct{ Flags uint32 }

func (o Output) Encode() []byte { return encodeUint(ItemTypeMain, tagOutput, o.Flags, false) }

type Feature struct{ Flags uint32 }

func (f Feature) Encode() []byte { return encodeUint(ItemTypeMain, tagFeature, f.Flags, false) }

// Collection kinds (HID 1.11 §6.2.2.6).
type CollectionKind uint8

const (
	CollectionPhysical CollectionKind = iota
	CollectionApplication
	CollectionLogical
	CollectionReport
	CollectionNamedArray
	CollectionUsageSwitch
	CollectionUsageModifier
)

// Collection wraps nested Items between a Collection/End Collection pair.
type Collection struct {
	Kind  CollectionKind
	Items []Item
}

func (c Collection) Encode() []byte {
	out := encodeItem(ItemTypeMain, tagCollection, []byte{byte(c.Kind)})
	for _, it := range c.Items {
		out = append(out, it.Encode()...)
	}
	out = append(out, encodeItem(ItemTypeMain, tagEndCollection, nil)...)
	return out
}

// Report is the top-level container for a HID report descriptor.
type Report struct {
	Items []Item
}

// Bytes serializes the full descriptor.
func (r Report) Bytes() []byte {
	var out []byte
	for _, it := range r.Items {
		out = append(out, it.Encode()...)
	}
	return out
}
