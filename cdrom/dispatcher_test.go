package cdrom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *Registry, *fakeBackend) {
	t.Helper()
	r := NewRegistry(10, 53)
	backend := newFakeBackend()
	for i := range backend.data {
		backend.data[i] = byte(i)
	}
	require.NoError(t, r.Open([]string{"a"}, func(string) (DiscBackend, error) { return backend, nil }))
	d := NewDispatcher(r, NewPlayerSet(), NullLogger{})
	return d, r, backend
}

// Scenario 3 from spec.md §8: Prime with the HFS-root workaround.
func Test_Prime_HFSRootWorkaround(t *testing.T) {
	d, r, backend := newTestDispatcher(t)
	_ = backend
	// Force a short read by shrinking the backend's data past offset 0x400.
	r.Drives[0].Backend = &shortReadBackend{cs: r.Drives[0].Backend.CueSheet()}
	r.Drives[0].BlockSize = 512

	buf := make([]byte, 512)
	n, status := d.Prime(0, 0, false, 0x400, buf)
	assert.Equal(t, NoErr, status)
	assert.Equal(t, 512, n)
	for _, b := range buf {
		assert.Equal(t, byte(0), b)
	}
}

// newAudioTestDispatcher wires a dispatcher to a single drive carrying
// twoTrackCue's two audio tracks, backed by a raw image full of a
// distinctive byte so FillBuffer reads are easy to tell from silence.
func newAudioTestDispatcher(t *testing.T) (*Dispatcher, *Registry, *fakeBackend) {
	t.Helper()
	cs := twoTrackCue(t)
	backend := &fakeBackend{cs: cs, inserted: true, data: make([]byte, int(cs.Length)*cs.RawSectorSize)}
	for i := range backend.data {
		backend.data[i] = 0xCD
	}
	r := NewRegistry(10, 53)
	require.NoError(t, r.Open([]string{"a"}, func(string) (DiscBackend, error) { return backend, nil }))
	d := NewDispatcher(r, NewPlayerSet(), NullLogger{})
	return d, r, backend
}

func Test_CDControl_ReadTOC_FirstLast(t *testing.T) {
	d, _, _ := newAudioTestDispatcher(t)
	v, data, status := d.Control(0, 0, 100, uint32(TOCFirstLast))
	assert.Equal(t, NoErr, status)
	assert.Nil(t, data)
	assert.Equal(t, uint32(1)<<8|2, v)
}

func Test_CDControl_ReadTOC_TrackList_MasksControlNibble(t *testing.T) {
	d, _, _ := newAudioTestDispatcher(t)
	_, data, status := d.Control(0, 0, 100, uint32(TOCTrackList)|1<<8)
	assert.Equal(t, NoErr, status)
	require.Len(t, data, 15) // 2 tracks + lead-out, 5 bytes each
	for i := 0; i < len(data); i += 5 {
		assert.Zero(t, data[i]&0xf0, "control byte must be masked to its low nibble")
	}
}

func Test_CDControl_ReadTOC_Type4_MasksControlNibble(t *testing.T) {
	d, _, _ := newAudioTestDispatcher(t)
	_, data, status := d.Control(0, 0, 100, uint32(TOCType4))
	assert.Equal(t, NoErr, status)
	require.Len(t, data, 512)
	// A0, A1, A2 anchors and the two track records all carry masked control bytes.
	for _, off := range []int{0, 8, 16, 24, 32} {
		assert.Zero(t, data[off+1]&0xf0, "control byte at offset %d must be masked", off)
	}
}

func Test_CDControl_ReadTOC_UnknownSubFormat_IsParamErr(t *testing.T) {
	d, _, _ := newAudioTestDispatcher(t)
	_, _, status := d.Control(0, 0, 100, 0xff)
	assert.Equal(t, ParamErr, status)
}

func Test_CDControl_PlayPauseResumeStop(t *testing.T) {
	d, r, _ := newAudioTestDispatcher(t)

	track1 := r.Drives[0].Backend.CueSheet().Tracks[0]
	csParam := uint32(PositionAbsoluteFrame)<<30 | track1.Start
	_, _, status := d.Control(0, 0, 104, csParam) // AudioPlay
	assert.Equal(t, NoErr, status)
	require.NotNil(t, r.Drives[0].Player)
	assert.Equal(t, AudioPlay, r.Drives[0].Player.Status())

	_, _, status = d.Control(0, 0, 105, 1) // AudioPause
	assert.Equal(t, NoErr, status)
	assert.Equal(t, AudioPaused, r.Drives[0].Player.Status())

	_, _, status = d.Control(0, 0, 105, 0) // AudioPause(resume)
	assert.Equal(t, NoErr, status)
	assert.Equal(t, AudioPlay, r.Drives[0].Player.Status())

	_, _, status = d.Control(0, 0, 106, 0) // AudioStop
	assert.Equal(t, NoErr, status)
	assert.Equal(t, AudioNoStatus, r.Drives[0].Player.Status())
}

func Test_CDControl_AudioPause_BadParam(t *testing.T) {
	d, _, _ := newAudioTestDispatcher(t)
	_, _, status := d.Control(0, 0, 105, 2)
	assert.Equal(t, ParamErr, status)
}

func Test_CDControl_AudioStatus_ReflectsPlayState(t *testing.T) {
	d, r, _ := newAudioTestDispatcher(t)
	track1 := r.Drives[0].Backend.CueSheet().Tracks[0]
	csParam := uint32(PositionAbsoluteFrame)<<30 | track1.Start
	_, _, status := d.Control(0, 0, 104, csParam)
	require.Equal(t, NoErr, status)

	_, data, status := d.Control(0, 0, 107, 0) // AudioStatus
	assert.Equal(t, NoErr, status)
	require.Len(t, data, 6)
	assert.Equal(t, uint8(0), data[0]) // 0 == playing
}

func Test_CDControl_Scan_MovesPlayhead(t *testing.T) {
	d, r, _ := newAudioTestDispatcher(t)
	track1 := r.Drives[0].Backend.CueSheet().Tracks[0]
	csParam := uint32(PositionAbsoluteFrame)<<30 | track1.Start
	_, _, status := d.Control(0, 0, 104, csParam)
	require.Equal(t, NoErr, status)

	_, _, status = d.Control(0, 0, 108, 0) // AudioScan forward
	assert.Equal(t, NoErr, status)
	assert.Greater(t, r.Drives[0].Player.audioPos, int64(0))
}

func Test_CDControl_VolumeRoundtrip(t *testing.T) {
	d, _, _ := newAudioTestDispatcher(t)
	_, _, status := d.Control(0, 0, 109, uint32(200)|uint32(100)<<8) // AudioControl: set volume
	assert.Equal(t, NoErr, status)

	v, _, status := d.Control(0, 0, 112, 0) // ReadAudioVolume
	assert.Equal(t, NoErr, status)
	assert.Equal(t, uint32(200), v&0xff)
	assert.Equal(t, uint32(100), (v>>8)&0xff)
}

func Test_CDControl_SpindleSpeed(t *testing.T) {
	d, _, _ := newAudioTestDispatcher(t)
	v, _, status := d.Control(0, 0, 113, 0) // GetSpindleSpeed
	assert.Equal(t, NoErr, status)
	assert.Equal(t, uint32(0xff), v)

	_, _, status = d.Control(0, 0, 114, 0) // SetSpindleSpeed
	assert.Equal(t, NoErr, status)
}

func Test_CDControl_PlayModeRoundtrip(t *testing.T) {
	d, _, _ := newAudioTestDispatcher(t)
	_, _, status := d.Control(0, 0, 125, uint32(1)|uint32(PlayOrderShuffle)<<8) // SetPlayMode
	assert.Equal(t, NoErr, status)

	v, _, status := d.Control(0, 0, 126, 0) // GetPlayMode
	assert.Equal(t, NoErr, status)
	assert.Equal(t, uint32(1), v&0x01)
	assert.Equal(t, uint32(PlayOrderShuffle), (v>>8)&0xff)
}

func Test_CDControl_FatalStubCodes_ReturnControlErr(t *testing.T) {
	d, _, _ := newAudioTestDispatcher(t)
	for _, code := range []int{102, 110, 111, 115, 116, 122, 123, 124} {
		_, _, status := d.Control(0, 0, code, 0)
		assert.Equalf(t, ControlErr, status, "code %d", code)
	}
}

func Test_CDControl_Unknown_IsControlErr(t *testing.T) {
	d, _, _ := newAudioTestDispatcher(t)
	_, _, status := d.Control(0, 0, 117, 0)
	assert.Equal(t, ControlErr, status)
}

func Test_CDControl_QSubcode_RequiresPlayback(t *testing.T) {
	d, _, _ := newAudioTestDispatcher(t)
	_, _, status := d.Control(0, 0, 101, 0)
	assert.Equal(t, IOErr, status)
}

func Test_CDControl_QSubcode_WhilePlaying(t *testing.T) {
	d, r, _ := newAudioTestDispatcher(t)
	track1 := r.Drives[0].Backend.CueSheet().Tracks[0]
	csParam := uint32(PositionAbsoluteFrame)<<30 | track1.Start
	_, _, status := d.Control(0, 0, 104, csParam)
	require.Equal(t, NoErr, status)

	_, data, status := d.Control(0, 0, 101, 0)
	assert.Equal(t, NoErr, status)
	require.Len(t, data, 12)
	assert.Equal(t, BinToBCD(1), data[3]) // track number, BCD
}

func Test_Status_FormatList(t *testing.T) {
	d, _, _ := newAudioTestDispatcher(t)
	v, data, status := d.Status(0, 0, StatFormatList, 0)
	assert.Equal(t, NoErr, status)
	assert.Equal(t, uint32(1), v)
	require.Len(t, data, 10)
	assert.Equal(t, uint8(1), data[1]) // one format
}

func Test_Status_DriveStatus(t *testing.T) {
	d, _, _ := newAudioTestDispatcher(t)
	_, data, status := d.Status(0, 0, StatDriveStatus, 0)
	assert.Equal(t, NoErr, status)
	require.Len(t, data, DrvStsSize)
	assert.Equal(t, uint8(1), data[OffsetDrvStsDiskInPlace])
	assert.Equal(t, uint8(1), data[OffsetDrvStsWriteProt])
}

func Test_Status_CDFeatures(t *testing.T) {
	d, _, _ := newAudioTestDispatcher(t)
	v, data, status := d.Status(0, 0, StatCDFeatures, 0)
	assert.Equal(t, NoErr, status)
	assert.Equal(t, uint32(0x02000c00), v)
	assert.Equal(t, []byte{0x02, 0x00, 0x0c, 0x00}, data)
}

type shortReadBackend struct {
	cs *CueSheet
}

func (s *shortReadBackend) CueSheet() *CueSheet              { return s.cs }
func (s *shortReadBackend) Read(int64, []byte) (int, error)  { return 0, nil }
func (s *shortReadBackend) RawReader() Reader                { return memReader(nil) }
func (s *shortReadBackend) IsDiskInserted() bool             { return true }
func (s *shortReadBackend) Eject() error                     { return nil }
func (s *shortReadBackend) Close() error                     { return nil }

func Test_Prime_OtherShortReadIsReadErr(t *testing.T) {
	d, r, _ := newTestDispatcher(t)
	r.Drives[0].Backend = &shortReadBackend{cs: r.Drives[0].Backend.CueSheet()}

	buf := make([]byte, 2048)
	_, status := d.Prime(0, 0, false, 0, buf)
	assert.Equal(t, ReadErr, status)
}

func Test_Prime_Write_IsWPrErr(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	buf := make([]byte, 2048)
	_, status := d.Prime(0, 0, true, 0, buf)
	assert.Equal(t, WPrErr, status)
}

func Test_Prime_UnalignedPosition_IsParamErr(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	buf := make([]byte, 2048)
	_, status := d.Prime(0, 0, false, 100, buf)
	assert.Equal(t, ParamErr, status)
}

func Test_Control_Eject_DragDropped(t *testing.T) {
	d, r, backend := newTestDispatcher(t)
	r.Drives[0].Drop = true

	_, _, status := d.Control(0, 0, CtrlEject, 0)
	assert.Equal(t, NoErr, status)
	assert.True(t, backend.ejected)
	assert.Nil(t, r.Drives[0].Backend)
	assert.False(t, r.Drives[0].DiskInPlace)
}

func Test_Control_Eject_Configured_StashesInRemountMap(t *testing.T) {
	d, r, _ := newTestDispatcher(t)
	r.Drives[0].Drop = false

	_, _, status := d.Control(0, 0, CtrlEject, 0)
	assert.Equal(t, NoErr, status)
	assert.Nil(t, r.Drives[0].Backend)
	assert.NotNil(t, r.RemountMap[0])
}

func Test_Control_UnknownCode_ReturnsControlErr(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	_, _, status := d.Control(0, 0, 9999, 0)
	assert.Equal(t, ControlErr, status)
}

func Test_Control_SetBlockSize(t *testing.T) {
	d, r, _ := newTestDispatcher(t)
	_, _, status := d.Control(0, 0, CtrlSetBlockSize, 512)
	assert.Equal(t, NoErr, status)
	assert.Equal(t, 512, r.Drives[0].BlockSize)

	_, _, status = d.Control(0, 0, CtrlSetBlockSize, 777)
	assert.Equal(t, ParamErr, status)
}

func Test_Control_DriverGestalt(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	v, _, status := d.Control(0, 0, CtrlDriverGestalt, be32("devt"))
	assert.Equal(t, NoErr, status)
	assert.Equal(t, be32("cdrm"), v)
}

func Test_Status_WhoIsThere(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	v, _, status := d.Status(0, 0, StatWhoIsThere, 0)
	assert.Equal(t, NoErr, status)
	assert.Equal(t, uint32(1), v) // drive 0 -> bit 0
}

func Test_Status_UnknownCode_ReturnsStatusErr(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	_, _, status := d.Status(0, 0, 9999, 0)
	assert.Equal(t, StatusErr, status)
}

func Test_Interrupt_NoOpUntilAccRun(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	assert.Nil(t, d.Interrupt())

	_, _, status := d.Control(0, 0, CtrlAccRun, 0)
	assert.Equal(t, NoErr, status)
	// Second call is a no-op per §4.8 ("disables future periodic calls").
	_, _, status = d.Control(0, 0, CtrlAccRun, 0)
	assert.Equal(t, NoErr, status)
}
