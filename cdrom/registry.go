package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	Attached-drive bookkeeping: DriveInfo, the drive registry,
 *		HFS partition discovery, unit-table expansion, and the
 *		insertion-polling loop (§4.6).
 *
 * Description:	Ported from BasiliskII's cdrom.cpp get_drive_info/
 *		find_hfs_partition/InsertNewDriverUnit/mount_mountable_volumes.
 *		InsertNewDriverUnit scans backward from count-1 down to 48
 *		for a free slot (confirmed against original_source/, see
 *		SPEC_FULL.md §4); this port keeps that exact order since a
 *		forward scan would diverge from real unit-assignment
 *		behavior even though it satisfies the prose in spec.md §4.6.
 *
 *------------------------------------------------------------------*/

import (
	"bytes"
	"fmt"
)

// PlayMode mirrors the guest's 0x00..0x0f play-mode byte.
type PlayMode uint8

// PlayOrder selects normal, shuffle, or programmed play order.
type PlayOrder uint8

const (
	PlayOrderNormal PlayOrder = iota
	PlayOrderShuffle
	PlayOrderProgram
)

// PowerMode is the guest's SetPowerMode(70) argument, 0..3.
type PowerMode uint8

// DriveInfo is one guest-visible attached drive (§3).
type DriveInfo struct {
	DriveNumber   uint32
	Backend       DiscBackend
	Player        *CDPlayer
	BlockSize     int    // 512 or 2048
	TwoKOffset    int    // last Prime position mod 2048, or -1
	StartByte     int64  // byte offset of first HFS partition, 0 if none
	ToBeMounted   bool
	MountNonHFS   bool
	TOC           []byte // cached TOCSize-byte blob
	LeadOut       MSF
	StopAt        MSF
	StartAt       MSF
	PlayModeByte  PlayMode
	Order         PlayOrder
	Repeat        bool
	Power         PowerMode
	StatusRecAddr uint32
	InitNull      bool // placeholder drive created with no backend (§3)
	Drop          bool // image arrived via drag-and-drop (§3)
	DiskInPlace   bool
	DriverRefNum  int16
}

// Registry is the ordered set of attached drives plus the remount map
// (§3: "drive registry").
type Registry struct {
	Drives []*DriveInfo
	// RemountMap holds backends stashed on eject for drives that should
	// reattach automatically (fixed-disk images, §4.8 Control(7)).
	RemountMap map[uint32]DiscBackend

	unitEntryCount int
	minUnitEntry   int
	cdromRefNum    int16
	occupied       map[int]bool
}

// NewRegistry creates an empty registry. cdromRefNum is the driver
// reference number pre-registered for the first drive; unitEntryCount is
// the guest unit table's current size.
func NewRegistry(cdromRefNum int16, unitEntryCount int) *Registry {
	return &Registry{
		RemountMap:     make(map[uint32]DiscBackend),
		unitEntryCount: unitEntryCount,
		minUnitEntry:   48,
		cdromRefNum:    cdromRefNum,
	}
}

// Open attaches backends, one drive per path; if paths is empty, attaches
// a single placeholder DriveInfo with InitNull set so a later drag-and-drop
// image has somewhere to land (§4.6).
func (r *Registry) Open(paths []string, open func(path string) (DiscBackend, error)) error {
	if len(paths) == 0 {
		r.attach(nil, true)
		return nil
	}
	for _, p := range paths {
		backend, err := open(p)
		if err != nil {
			return fmt.Errorf("open drive %q: %w", p, err)
		}
		r.attach(backend, false)
	}
	return nil
}

func (r *Registry) attach(backend DiscBackend, initNull bool) *DriveInfo {
	num := uint32(len(r.Drives))
	di := &DriveInfo{
		DriveNumber: num,
		Backend:     backend,
		BlockSize:   2048,
		TwoKOffset:  -1,
		InitNull:    initNull,
	}

	if num == 0 {
		di.DriverRefNum = r.cdromRefNum
	} else {
		di.DriverRefNum = r.installUnitTableEntry()
	}

	if backend != nil {
		di.DiskInPlace = backend.IsDiskInserted()
		if di.DiskInPlace {
			r.refreshTOCAndPartition(di)
			di.ToBeMounted = true
		}
	}

	r.Drives = append(r.Drives, di)
	return di
}

// installUnitTableEntry implements InsertNewDriverUnit: scan [minUnitEntry,
// unitEntryCount) backward from the top for a free slot; if the table is
// full, grow it by 10 entries (capped at 127).
func (r *Registry) installUnitTableEntry() int16 {
	for slot := r.unitEntryCount - 1; slot >= r.minUnitEntry; slot-- {
		if !r.slotOccupied(slot) {
			r.markSlotOccupied(slot)
			return int16(^slot)
		}
	}

	newCount := r.unitEntryCount + 10
	if newCount > 127 {
		newCount = 127
	}
	slot := r.unitEntryCount
	r.unitEntryCount = newCount
	r.markSlotOccupied(slot)
	return int16(^slot)
}

// slotOccupied/markSlotOccupied track which unit-table slots have been
// handed out, standing in for consulting the live guest unit table.
func (r *Registry) slotOccupied(slot int) bool {
	return r.occupied != nil && r.occupied[slot]
}

func (r *Registry) markSlotOccupied(slot int) {
	if r.occupied == nil {
		r.occupied = make(map[int]bool)
	}
	r.occupied[slot] = true
}

// refreshTOCAndPartition rebuilds a drive's cached TOC and HFS partition
// offset from its backend, as every insertion does (§3: "TOC cache is
// refilled on every insertion").
func (r *Registry) refreshTOCAndPartition(di *DriveInfo) {
	cs := di.Backend.CueSheet()
	di.TOC = BuildTOC(cs)
	di.LeadOut = leadOutMSF(cs)

	head := make([]byte, 64*512)
	n, _ := di.Backend.Read(0, head)
	di.StartByte = FindHFSPartition(bytes.NewReader(head[:n]))
}

// FindHFSPartition scans the first 64 512-byte blocks of raw for an Apple
// partition map entry whose name is "Apple_HFS", returning its start byte
// offset, or 0 if none is found (§4.6).
func FindHFSPartition(raw Reader) int64 {
	const blockSize = 512
	block := make([]byte, blockSize)

	for i := 0; i < 64; i++ {
		n, err := raw.ReadAt(block, int64(i)*blockSize)
		if n < blockSize || err != nil {
			return 0
		}
		if block[0] != 'P' || block[1] != 'M' {
			continue
		}
		name := string(block[48:57])
		if name == "Apple_HFS" {
			start := uint32(block[8])<<24 | uint32(block[9])<<16 | uint32(block[10])<<8 | uint32(block[11])
			return int64(start) * blockSize
		}
	}
	return 0
}

// PollInsertions implements the 1 Hz insertion loop (§4.6): for each drive
// with no disk registered whose backend now reports one inserted, mark it
// inserted, refresh its TOC/partition, and flag it to be mounted. Returns
// the drive numbers newly flagged, for the caller to PostEvent.
func (r *Registry) PollInsertions() []uint32 {
	var pending []uint32
	for _, di := range r.Drives {
		if di.Backend == nil || di.DiskInPlace {
			continue
		}
		if !di.Backend.IsDiskInserted() {
			continue
		}
		di.DiskInPlace = true
		r.refreshTOCAndPartition(di)
		di.ToBeMounted = true
		pending = append(pending, di.DriveNumber)
	}
	return pending
}

// ClearMountPending clears ToBeMounted after the caller has posted the
// corresponding diskEvent.
func (r *Registry) ClearMountPending(driveNumber uint32) {
	for _, di := range r.Drives {
		if di.DriveNumber == driveNumber {
			di.ToBeMounted = false
			return
		}
	}
}

// DiskEventCode is the guest event code posted for a newly mounted disc
// (§4.6: "event code 7").
const DiskEventCode = 7

// ByDriveNumber resolves a drive by its guest-visible number.
func (r *Registry) ByDriveNumber(n uint32) *DriveInfo {
	for _, di := range r.Drives {
		if di.DriveNumber == n {
			return di
		}
	}
	return nil
}

// ByDriverRefNum resolves a drive by its assigned unit-table reference
// number, the dispatcher's fallback lookup (§4.8 Prime: "by drive number
// first, then by driver reference number").
func (r *Registry) ByDriverRefNum(refNum int16) *DriveInfo {
	for _, di := range r.Drives {
		if di.DriverRefNum == refNum {
			return di
		}
	}
	return nil
}
