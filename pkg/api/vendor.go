package api

// VendorID is a PCI vendor identifier, plus two sentinel values used by
// plugin requirements: VendorAny accepts any adapter, VendorNone means the
// plugin needs no GPU at all.
type VendorID uint32

const (
	VendorAny   VendorID = 0
	VendorNone  VendorID = 1
	VendorMS    VendorID = 0x1414
	VendorNVDA  VendorID = 0x10DE
	VendorAMD   VendorID = 0x1002
	VendorIntel VendorID = 0x8086
)

func (v VendorID) String() string {
	switch v {
	case VendorAny:
		return "any"
	case VendorNone:
		return "none"
	case VendorMS:
		return "microsoft"
	case VendorNVDA:
		return "nvidia"
	case VendorAMD:
		return "amd"
	case VendorIntel:
		return "intel"
	}
	return "unknown"
}
