// Package gap computes which resolution-aligned slots of a requested window are not
// yet covered by a series.
//
// Slots are generated from the window start, not from any wall-clock alignment. A
// trailing partial slot shorter than the resolution is never reported. The resolution
// comes from the first present sample; a series without present samples reports the
// whole window as one missing range.
package gap
