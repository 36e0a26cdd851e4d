package protocol

import (
	"fmt"
	"strings"

	"github.com/HWS-XMS/DelayUnit/pkg/timing"
)

// Gen1 is the original 100 MHz prototype: 10 000 ps coarse cycles with a
// direct picosecond fine stage (0-9999 ps, unsigned). No arming surface;
// the trigger fires on every qualifying edge.
var Gen1 = &Profile{
	Name:        "gen1",
	Description: "100 MHz prototype, picosecond fine stage",
	VendorID:    0x0403, // FTDI
	ProductID:   0x6010, // FT2232H (Digilent Arty)
	Baud:        115200,
	Commands: map[Command]CommandSpec{
		CmdSetCoarse:     {Code: 0x01, Arg: PayloadU32},
		CmdGetCoarse:     {Code: 0x02, Resp: PayloadU32},
		CmdSetEdge:       {Code: 0x03, Arg: PayloadU8},
		CmdGetEdge:       {Code: 0x04, Resp: PayloadU8},
		CmdGetStatus:     {Code: 0x05},
		CmdResetCount:    {Code: 0x06},
		CmdSetFineOffset: {Code: 0x07, Arg: PayloadU16},
		CmdGetFineOffset: {Code: 0x08, Resp: PayloadU16},
	},
	Status: []StatusEntry{
		{FieldTriggerCount, PayloadU16},
		{FieldCoarseDelay, PayloadU32},
		{FieldFineOffset, PayloadU16},
	},
	Delay: timing.Resolution{
		CyclePeriod:   timing.Picoseconds(10000),
		StepsPerCycle: 10000, // 1 ps fine steps
		Round:         timing.Truncate,
	},
}

// Gen2 is the coarse-only 200 MHz revision: 5 ns cycles, no fine stage.
// Nanosecond requests round to the nearest cycle, and the delay pipeline
// needs at least one cycle to operate.
var Gen2 = &Profile{
	Name:        "gen2",
	Description: "200 MHz coarse-only revision",
	VendorID:    0x0403,
	ProductID:   0x6010,
	Baud:        1000000,
	Commands: map[Command]CommandSpec{
		CmdSetCoarse:  {Code: 0x01, Arg: PayloadU32},
		CmdGetCoarse:  {Code: 0x02, Resp: PayloadU32},
		CmdSetEdge:    {Code: 0x03, Arg: PayloadU8},
		CmdGetEdge:    {Code: 0x04, Resp: PayloadU8},
		CmdGetStatus:  {Code: 0x05},
		CmdResetCount: {Code: 0x06},
	},
	Status: []StatusEntry{
		{FieldTriggerCount, PayloadU16},
		{FieldCoarseDelay, PayloadU32},
	},
	Delay: timing.Resolution{
		CyclePeriod:   timing.Nanoseconds(5),
		StepsPerCycle: 1,
		Round:         timing.Nearest,
		MinCoarse:     1,
	},
}

// Gen3 is the current EMFI Lab DelayUnit: 5 ns coarse cycles with a
// 560-step MMCM phase-shift fine stage (~8.93 ps per step). Fine values
// are signed and kept within ±280 steps so the phase-shift search never
// wraps past half a cycle.
var Gen3 = &Profile{
	Name:        "gen3",
	Description: "EMFI Lab DelayUnit, MMCM phase-shift fine stage",
	VendorID:    0x1337,
	ProductID:   0x0099,
	Baud:        1000000,
	Commands: map[Command]CommandSpec{
		CmdSetCoarse:           {Code: 0x01, Arg: PayloadU32},
		CmdGetCoarse:           {Code: 0x02, Resp: PayloadU32},
		CmdSetEdge:             {Code: 0x03, Arg: PayloadU8},
		CmdGetEdge:             {Code: 0x04, Resp: PayloadU8},
		CmdGetStatus:           {Code: 0x05},
		CmdResetCount:          {Code: 0x06},
		CmdSoftTrigger:         {Code: 0x07},
		CmdSetCoarseWidth:      {Code: 0x08, Arg: PayloadU32},
		CmdGetCoarseWidth:      {Code: 0x09, Resp: PayloadU32},
		CmdSetTriggerMode:      {Code: 0x0A, Arg: PayloadU8},
		CmdGetTriggerMode:      {Code: 0x0B, Resp: PayloadU8},
		CmdSetSoftTriggerWidth: {Code: 0x0C, Arg: PayloadU32},
		CmdGetSoftTriggerWidth: {Code: 0x0D, Resp: PayloadU32},
		CmdSetCounterMode:      {Code: 0x0E, Arg: PayloadU8},
		CmdGetCounterMode:      {Code: 0x0F, Resp: PayloadU8},
		CmdSetEdgeCountTarget:  {Code: 0x10, Arg: PayloadU32},
		CmdGetEdgeCountTarget:  {Code: 0x11, Resp: PayloadU32},
		CmdResetEdgeCount:      {Code: 0x12},
		CmdArm:                 {Code: 0x13},
		CmdDisarm:              {Code: 0x14},
		CmdSetArmedMode:        {Code: 0x15, Arg: PayloadU8},
		CmdGetArmedMode:        {Code: 0x16, Resp: PayloadU8},
		CmdGetArmed:            {Code: 0x17, Resp: PayloadU8},
		CmdSetFineOffset:       {Code: 0x18, Arg: PayloadI32},
		CmdGetFineOffset:       {Code: 0x19, Resp: PayloadI32},
		CmdSetFineWidth:        {Code: 0x1A, Arg: PayloadI32},
		CmdGetFineWidth:        {Code: 0x1B, Resp: PayloadI32},
	},
	// 26 bytes on the wire; the last byte is reserved by the firmware.
	Status: []StatusEntry{
		{FieldTriggerCount, PayloadU16},
		{FieldCoarseDelay, PayloadU32},
		{FieldFineOffset, PayloadI32},
		{FieldCoarseWidth, PayloadU32},
		{FieldFineWidth, PayloadI32},
		{FieldArmed, PayloadU8},
		{FieldTriggerMode, PayloadU8},
		{FieldArmedMode, PayloadU8},
		{FieldCounterMode, PayloadU8},
		{FieldMMCMLocked, PayloadU8},
		{FieldPhaseShiftReady, PayloadU8},
		{FieldEdgeType, PayloadU8},
		{FieldReserved, PayloadU8},
	},
	Delay: timing.Resolution{
		CyclePeriod:   timing.Nanoseconds(5),
		StepsPerCycle: 560,
		MaxFineSteps:  280,
		Round:         timing.Truncate,
	},
	Width: &timing.Resolution{
		CyclePeriod:   timing.Nanoseconds(5),
		StepsPerCycle: 560,
		MaxFineSteps:  280,
		Round:         timing.Truncate,
		MinCoarse:     1, // output pulse needs at least one cycle
	},
}

// Current is the generation new boards ship with
var Current = Gen3

// Profiles lists all known generations, oldest first
var Profiles = []*Profile{Gen1, Gen2, Gen3}

// ProfileByName returns the generation profile for a name such as
// "gen1" or "current"
func ProfileByName(name string) (*Profile, error) {
	if strings.EqualFold(name, "current") {
		return Current, nil
	}
	for _, p := range Profiles {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}
