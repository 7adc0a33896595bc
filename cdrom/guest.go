package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	The out-of-scope guest collaborators (memory access, trap
 *		execution) as interfaces, plus the Device-Manager parameter-
 *		block byte offsets centralized in one place per spec.md §9's
 *		design note ("centralize them as named constants, not
 *		scatter them").
 *
 *------------------------------------------------------------------*/

// GuestMemory is the guest address space, as seen by the driver: byte/word/
// long accessors plus bulk copy/fill, matching the out-of-scope primitives
// named in spec.md §1 (read8/16/32, write8/16/32, mac_memset, mac2mac_memcpy).
type GuestMemory interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, v uint8)
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)
	Memset(addr uint32, v uint8, n uint32)
	Memcpy(dst, src uint32, n uint32)
	// CopyIn/CopyOut move bytes between guest memory and a host []byte,
	// standing in for mac2mac_memcpy's host-side use.
	CopyIn(addr uint32, n uint32) []byte
	CopyOut(addr uint32, data []byte)
}

// GuestTraps is the subset of guest trap dispatch the driver calls into:
// allocating/disposing unit-table storage, registering a drive, and
// posting disk-inserted events (spec.md §1, §4.6).
type GuestTraps interface {
	NewPtrSysClear(n uint32) uint32
	DisposePtr(addr uint32)
	AddDrive(driverRefNum int16, driveNum uint32, statusRecordDsQLink uint32) error
	PostEvent(what int16, message uint32) error
}

// Device-Manager parameter-block byte offsets (§9: "part of the external
// contract with the emulated OS", centralized here rather than scattered
// across the dispatcher).
const (
	// ParamBlock (IOParam/CntrlParam) offsets.
	OffsetIOVRefNum   = 0x16
	OffsetIORefNum    = 0x18
	OffsetCSCode      = 0x1a
	OffsetCSParam     = 0x1c
	OffsetIOBuffer    = 0x20
	OffsetIOReqCount  = 0x24
	OffsetIOActCount  = 0x28
	OffsetIOPosMode   = 0x2c
	OffsetIOPosOffset = 0x2e

	// DCtlEntry offsets.
	OffsetDCtlFlags    = 0x00
	OffsetDCtlPosition = 0x0e

	// DrvSts (status record) offsets. Status(8) returns DrvStsSize bytes,
	// ending with the writeProt byte at 0x1f; of the fields below it sets
	// diskInPlace, installed, sides and writeProt, and leaves qLink/qType
	// zero.
	OffsetDrvStsQLink       = 0x00
	OffsetDrvStsQType       = 0x04
	OffsetDrvStsDiskInPlace = 0x16
	OffsetDrvStsInstalled   = 0x17
	OffsetDrvStsSides       = 0x18
	OffsetDrvStsWriteProt   = 0x1f
	DrvStsSize              = 0x20
)

// StatusRecordSize is the size NewPtrSysClear allocates per drive's status
// record before AddDrive is called (§4.6).
const StatusRecordSize = 0x50
