package txbuilder

// Priority selects a transaction's fee multiplier, mirroring the
// wallet's send-now vs send-cheap choice (spec.md §4.6).
type Priority int

const (
	PriorityUnimportant Priority = iota
	PriorityNormal
	PriorityElevated
	PriorityPriority
)

// Fee constants. BaseFeePerByte is the atomic-unit price per unit of
// transaction weight; FeeQuantizationMask rounds every computed fee up
// to the nearest multiple of this many atomic units, so a block's fees
// only ever take a small number of distinct values (spec.md §4.6:
// "quantized to the nearest fee-quantization unit").
const (
	BaseFeePerByte      uint64 = 20000
	FeeQuantizationMask uint64 = 10000

	// ConversionSlippageNum/Den is the fixed 1/32 slippage oracle-
	// conversion transactions add on the burnt side (spec.md §4.6, §9
	// "Oracle conversion").
	ConversionSlippageNum uint64 = 1
	ConversionSlippageDen uint64 = 32
)

var priorityMultiplier = [...]uint64{
	PriorityUnimportant: 1,
	PriorityNormal:      4,
	PriorityElevated:    20,
	PriorityPriority:    166,
}

// Multiplier returns p's fee multiplier, falling back to
// PriorityNormal's for any value outside the declared range.
func (p Priority) Multiplier() uint64 {
	if p >= PriorityUnimportant && int(p) < len(priorityMultiplier) {
		return priorityMultiplier[p]
	}
	return priorityMultiplier[PriorityNormal]
}

// EstimateFee computes the fee for a transaction of the given weight
// (serialized byte weight, with Bulletproofs+ already folded in by the
// caller per the usual clawback) at priority, quantized up to the
// nearest FeeQuantizationMask multiple (spec.md §4.6). It is a pure
// function of (weight, priority) so callers can assert the fee curve
// without constructing a transaction (SPEC_FULL.md §8).
func EstimateFee(weight uint64, priority Priority) uint64 {
	raw := weight * BaseFeePerByte * priority.Multiplier()
	return quantize(raw, FeeQuantizationMask)
}

func quantize(amount, unit uint64) uint64 {
	if unit == 0 {
		return amount
	}
	rem := amount % unit
	if rem == 0 {
		return amount
	}
	return amount + (unit - rem)
}

// ApplyConversionSlippage adds the fixed 1/32 slippage an oracle
// conversion transaction burns on top of amount (spec.md §4.6, §9).
func ApplyConversionSlippage(amount uint64) uint64 {
	return amount + amount*ConversionSlippageNum/ConversionSlippageDen
}
