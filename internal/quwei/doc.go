// Package quwei implements the numeric quwei (区位码) lookup used by the
// quwei input method.
//
// # Codes
//
// A quwei code addresses a cell of the legacy GB2312 grid: the first two
// decimal digits select the zone (qu), the last two the position (wei). The
// user types only the first three digits, which selects a page of ten
// consecutive sub-codes:
//
//	page code  016  →  sub-codes 0161 .. 0170
//	slot label  1 2 3 4 5 6 7 8 9 0
//
// Slot "0" is the tenth candidate (offset +10), so page 160 starts with
// 1601 (啊) and ends with 1610.
//
// # Byte translation
//
//	qu <  95   first = 0xA0 + qu        second = 0xA0 + wei
//	qu >= 95   first = 0xA8 + (qu - 95) second = 0x40 + wei (0x7F skipped)
//
// The two bytes are decoded as GB18030. Cells with no assigned character
// produce an empty candidate rather than an error; a page always has ten
// slots.
package quwei
