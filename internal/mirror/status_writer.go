// internal/mirror/status_writer.go
package mirror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/marstek-bridge/internal/status"
)

// RegisterWriter is the one call the mirror needs from a Modbus client.
// *modbus.EndpointClient satisfies it.
type RegisterWriter interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// statusWriter delivers snapshots of one device into its status block.
// It remembers what the target holds so unchanged slots are not rewritten.
type statusWriter struct {
	plan Plan
	cli  RegisterWriter

	needFull bool
	last     []uint16
	nameRegs []uint16
}

func newStatusWriter(plan Plan, cli RegisterWriter) *statusWriter {
	return &statusWriter{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		nameRegs: status.EncodeName(plan.Name),
	}
}

// WriteStatus delivers a snapshot.
// On any write failure, the next call re-asserts the full block.
func (sw *statusWriter) WriteStatus(s status.Snapshot) error {
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}

	regs := status.Encode(s)
	baseAddr := status.BlockAddress(sw.plan.BaseSlot)

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		copy(regs[status.SlotDeviceNameStart:], sw.nameRegs)

		if err := sw.cli.WriteRegisters(sw.plan.UnitID, baseAddr, regs); err != nil {
			sw.needFull = true
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}

		sw.needFull = false
		sw.last = regs
		return nil
	}

	// ------------------------------------------------------------
	// Incremental: live + telemetry slots, one write per changed slot
	// ------------------------------------------------------------
	var errs []string

	for slot := status.SlotHealthCode; slot < status.SlotDeviceNameStart; slot++ {
		if sw.last[slot] == regs[slot] {
			continue
		}
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, baseAddr+uint16(slot), []uint16{regs[slot]}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d write failed: %v", slot, err))
			continue
		}
		sw.last[slot] = regs[slot]
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt; re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}
