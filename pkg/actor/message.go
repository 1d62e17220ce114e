package actor

// PType is the high-8-bit type tag carried in the size-and-type field
// of spec.md §3 and §6.
type PType uint8

const (
	PTypeText     PType = 0
	PTypeClient   PType = 2
	PTypeResponse PType = 1
	PTypeError    PType = 3
)

// MaxPayloadSize is 16 MiB - 1, the largest size the 24-bit size field
// can represent.
const MaxPayloadSize = 1<<24 - 1

// SendFlag modifies Node.Send behavior; see spec.md §4.4.
type SendFlag uint8

const (
	// FlagDontCopy means the caller is transferring ownership of the
	// payload and Send must not duplicate it.
	FlagDontCopy SendFlag = 1 << iota
	// FlagAllocSession requests a freshly allocated session id; the
	// caller must pass session == 0.
	FlagAllocSession
)

// Message is one entry in a mailbox.
type Message struct {
	Source  Handle
	Session int32
	Type    PType
	Payload []byte
}

// PackSizeType reproduces the wire encoding of spec.md §6:
// (type_tag << 24) | size. size must be < 2^24.
func PackSizeType(size int, t PType) uint32 {
	return uint32(t)<<24 | uint32(size)&0x00FFFFFF
}

// UnpackSizeType inverts PackSizeType.
func UnpackSizeType(v uint32) (size int, t PType) {
	return int(v & 0x00FFFFFF), PType(v >> 24)
}
