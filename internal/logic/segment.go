package logic

// Segment patterns for digits 0-9, segments a..g packed LSB-first (a=bit0).
var segmentTable = [10]uint8{
	0x3F, 0x06, 0x5B, 0x4F, 0x66, 0x6D, 0x7D, 0x07, 0x7F, 0x67,
}

// Encode returns the 7-bit segment pattern for a decimal digit.
// Digits outside 0-9 are out of contract; Encode returns 0 (all segments dark)
// for them rather than panicking inside the display task.
func Encode(digit int) uint8 {
	if digit < 0 || digit > 9 {
		return 0
	}
	return segmentTable[digit]
}

// SegmentLevels expands a pattern into per-segment levels in a..g order.
func SegmentLevels(pattern uint8) [7]bool {
	var levels [7]bool
	for k := range levels {
		levels[k] = pattern&(1<<k) != 0
	}
	return levels
}
