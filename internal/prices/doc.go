// Package prices turns cached series into evenly spaced price vectors.
//
// A request names one series and a target resolution. The series is read through the
// range cache, then resampled onto the grid [start, start+resolution, ...) ending
// before end: buckets are averaged when the target is coarser than the native width,
// linearly interpolated when it is finer, and copied when the two agree. Slots with no
// data are NaN.
package prices
